package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twentytesters/backend/internal/lifecycle"
	"github.com/twentytesters/backend/internal/mailer"
	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// RequestService manages the confirmation ledger: pairwise tester
// claims and their accept/reject decisions.
type RequestService struct {
	store  storage.Store
	mailer mailer.Mailer
	engine *lifecycle.Engine
	now    func() time.Time
}

// NewRequestService creates a RequestService. Decisions re-run the
// lifecycle engine for the request's group.
func NewRequestService(store storage.Store, m mailer.Mailer, engine *lifecycle.Engine) *RequestService {
	return &RequestService{store: store, mailer: m, engine: engine, now: time.Now}
}

// Create records the requester's claim of having tested the app owned
// by appOwnerID in the group. Resubmitting the same claim updates the
// evidence and resets the request to PENDING rather than duplicating
// it. The app owner is notified.
func (s *RequestService) Create(ctx context.Context, groupID, requesterID, appOwnerID, imageURL string) (*models.Request, error) {
	if requesterID == appOwnerID {
		return nil, ErrSelfRequest
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
		}
		return nil, err
	}

	now := s.now().Unix()
	req := &models.Request{
		GroupID:       groupID,
		UserID:        requesterID,
		UserRequested: appOwnerID,
		Status:        models.RequestPending,
		ImageURL:      imageURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.UpsertRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requester, err := s.store.GetUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}

	if err := s.store.CreateNotification(ctx, &models.Notification{
		GroupID: groupID,
		UserID:  appOwnerID,
		Title:   "Request to become a tester!",
		Message: fmt.Sprintf("%s<%s> claims to have tested your app in group #%d. Confirm or reject the request.",
			requester.Name, requester.Email, group.GroupNumber),
		CreatedAt: now,
	}); err != nil {
		slog.Error("tester request notification failed", "request_id", req.ID, "error", err)
	}

	slog.Info("tester request submitted",
		"request_id", req.ID,
		"group_id", groupID,
		"requester_id", requesterID,
		"app_owner_id", appOwnerID,
	)
	return req, nil
}

// Confirm records the app owner's decision on a request. Only the
// requested user may decide. Confirming with the decision the request
// already carries is a success no-op. A real change notifies the
// requester and recomputes the group.
func (s *RequestService) Confirm(ctx context.Context, requestID, byUserID string, decision models.RequestStatus) error {
	if decision != models.RequestAccepted && decision != models.RequestRejected {
		return fmt.Errorf("decision must be ACCEPTED or REJECTED: %w", ErrInvalidState)
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("request %s: %w", requestID, ErrNotFound)
		}
		return err
	}
	if req.UserRequested != byUserID {
		return ErrForbidden
	}
	if req.Status == decision {
		return nil
	}

	now := s.now().Unix()
	changed, err := s.store.UpdateRequestStatus(ctx, requestID, decision, now)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if !changed {
		// A concurrent identical decision already landed; the side
		// effects fired with it.
		return nil
	}

	group, err := s.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}
	owner, err := s.store.GetUser(ctx, byUserID)
	if err != nil {
		return fmt.Errorf("failed to load deciding user: %w", err)
	}
	requester, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to load requester: %w", err)
	}

	if err := s.store.CreateNotification(ctx, &models.Notification{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Title:   "Tester request decided",
		Message: fmt.Sprintf("%s<%s> %s that %s<%s> installed their app.",
			owner.Name, owner.Email, decision, requester.Name, requester.Email),
		CreatedAt: now,
	}); err != nil {
		slog.Error("decision notification failed", "request_id", requestID, "error", err)
	}

	if err := s.mailer.SendTesterDecision(requester.Email, group.GroupNumber, string(decision), owner.Name, owner.Email); err != nil {
		slog.Warn("decision email failed", "request_id", requestID, "error", err)
	}

	slog.Info("tester request decided",
		"request_id", requestID,
		"group_id", req.GroupID,
		"decision", decision,
	)

	return s.engine.Recompute(ctx, req.GroupID)
}

// ListByGroup returns the group's requests, oldest first.
func (s *RequestService) ListByGroup(ctx context.Context, groupID string) ([]models.Request, error) {
	requests, err := s.store.ListRequestsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}
