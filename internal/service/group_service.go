package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twentytesters/backend/internal/lifecycle"
	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// GroupSummary is the list view of a group: the group plus its member
// emails.
type GroupSummary struct {
	models.Group
	Members []string `json:"members"`
}

// GroupService exposes group views and membership operations.
type GroupService struct {
	store  storage.Store
	engine *lifecycle.Engine
	now    func() time.Time
}

// NewGroupService creates a GroupService. Membership mutations re-run
// the lifecycle engine.
func NewGroupService(store storage.Store, engine *lifecycle.Engine) *GroupService {
	return &GroupService{store: store, engine: engine, now: time.Now}
}

// List returns all groups with their member emails, newest first.
func (s *GroupService) List(ctx context.Context) ([]GroupSummary, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		members, err := s.store.ListGroupMembers(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of group %s: %w", g.ID, err)
		}
		emails := make([]string, 0, len(members))
		for _, m := range members {
			emails = append(emails, m.Email)
		}
		summaries = append(summaries, GroupSummary{Group: g, Members: emails})
	}
	return summaries, nil
}

// Get returns the full group view for the given viewer: members and
// apps enriched with the viewer's request state toward each app.
func (s *GroupService) Get(ctx context.Context, groupID, viewerID string) (*models.GroupDetail, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
		}
		return nil, err
	}

	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	apps, err := s.store.ListGroupApps(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group apps: %w", err)
	}
	requests, err := s.store.ListRequestsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group requests: %w", err)
	}

	ownerByID := make(map[string]models.GroupMember, len(members))
	for _, m := range members {
		ownerByID[m.UserID] = m
	}

	// The viewer's outstanding request per app owner.
	viewerRequests := make(map[string]models.Request)
	for _, r := range requests {
		if r.UserID == viewerID {
			viewerRequests[r.UserRequested] = r
		}
	}

	enriched := make([]models.EnrichedApp, 0, len(apps))
	for _, app := range apps {
		e := models.EnrichedApp{App: app}
		if owner, ok := ownerByID[app.UserID]; ok {
			e.OwnerName = owner.Name
			e.OwnerEmail = owner.Email
		}
		if r, ok := viewerRequests[app.UserID]; ok {
			e.RequestSent = true
			e.RequestStatus = r.Status
		}
		enriched = append(enriched, e)
	}

	return &models.GroupDetail{Group: *group, Members: members, Apps: enriched}, nil
}

// Join adds the user to an OPEN group and recomputes its status.
func (s *GroupService) Join(ctx context.Context, groupID, userID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
		}
		return err
	}
	if group.Status != models.GroupOpen {
		return fmt.Errorf("group is %s: %w", group.Status, ErrInvalidState)
	}

	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to list group members: %w", err)
	}
	for _, m := range members {
		if m.UserID == userID {
			// Already a member; joining twice is a no-op.
			return nil
		}
	}
	if len(members) >= group.MaxMembers {
		return fmt.Errorf("group is full: %w", ErrInvalidState)
	}

	if err := s.store.AddGroupMember(ctx, groupID, userID, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}
	slog.Info("user joined group", "group_id", groupID, "user_id", userID)

	return s.engine.Recompute(ctx, groupID)
}

// Leave removes the user from the group. Rejected with ErrGroupLocked
// while the group is PENDING or INPROGRESS, unless adminOverride is
// set. COMPLETE groups are retained as-is.
func (s *GroupService) Leave(ctx context.Context, groupID, userID string, adminOverride bool) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
		}
		return err
	}

	switch group.Status {
	case models.GroupComplete:
		return fmt.Errorf("group is complete: %w", ErrInvalidState)
	case models.GroupPending, models.GroupInProgress:
		if !adminOverride {
			return ErrGroupLocked
		}
	}

	if err := s.store.RemoveGroupMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	slog.Info("user left group", "group_id", groupID, "user_id", userID, "admin_override", adminOverride)

	return s.engine.Recompute(ctx, groupID)
}
