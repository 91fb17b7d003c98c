// Package lifecycle advances testing groups through their ordered
// phases: OPEN -> PENDING -> INPROGRESS -> COMPLETE, with the single
// backward edge PENDING -> OPEN when membership drops before testing
// begins. The final transition is a durable delayed job handled by
// Scheduler.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twentytesters/backend/internal/mailer"
	"github.com/twentytesters/backend/internal/metrics"
	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// Engine recomputes a group's status from membership and confirmation
// counts. Recompute must be called after member join, member leave, and
// every request status change; it is idempotent and a no-op on COMPLETE
// groups.
type Engine struct {
	store            storage.Store
	mailer           mailer.Mailer
	scheduler        *Scheduler
	completionWindow time.Duration
	now              func() time.Time

	// Per-group locks serialize concurrent recomputation of the same
	// group. Status writes are additionally compare-and-set, so the
	// lock only prevents duplicate side effects, not corruption.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a lifecycle engine. completionWindow is how long a
// group stays INPROGRESS before the scheduled COMPLETE transition.
func NewEngine(store storage.Store, m mailer.Mailer, scheduler *Scheduler, completionWindow time.Duration) *Engine {
	return &Engine{
		store:            store,
		mailer:           m,
		scheduler:        scheduler,
		completionWindow: completionWindow,
		now:              time.Now,
		locks:            make(map[string]*sync.Mutex),
	}
}

func (e *Engine) groupLock(groupID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[groupID] = lock
	}
	return lock
}

// Recompute re-evaluates the group's status. COMPLETE is never reached
// from here; it fires only via the scheduled job.
func (e *Engine) Recompute(ctx context.Context, groupID string) error {
	lock := e.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}

	if group.Status == models.GroupComplete {
		// Terminal: drop the per-group lock so the map does not grow
		// with every completed group.
		e.mu.Lock()
		delete(e.locks, groupID)
		e.mu.Unlock()
		return nil
	}

	members, err := e.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}

	switch group.Status {
	case models.GroupOpen:
		if len(members) >= group.MaxMembers {
			return e.toPending(ctx, group, members)
		}

	case models.GroupPending:
		if len(members) < group.MaxMembers {
			// A member left before testing began; re-open the seat.
			return e.toOpen(ctx, group)
		}
		accepted, err := e.store.CountAcceptedRequesters(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to count accepted requesters: %w", err)
		}
		if accepted >= group.MaxMembers {
			return e.toInProgress(ctx, group, members)
		}

	case models.GroupInProgress:
		// Waits for the scheduled completion job; nothing to recompute.
	}

	return nil
}

func (e *Engine) toPending(ctx context.Context, group *models.Group, members []models.GroupMember) error {
	changed, err := e.store.UpdateGroupStatus(ctx, group.ID, models.GroupOpen, models.GroupPending, e.now().Unix())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	metrics.GroupTransitions.WithLabelValues(string(models.GroupPending)).Inc()
	slog.Info("group is full, entering pending", "group_id", group.ID, "group_number", group.GroupNumber)

	e.notifyMembers(ctx, group, members,
		"Your group is ready to start testing!",
		fmt.Sprintf("Group #%d is full. Install each other's apps and confirm your testers to begin the testing phase.", group.GroupNumber),
	)
	if err := e.mailer.SendGroupReady(memberEmails(members), group.GroupNumber); err != nil {
		slog.Warn("group ready email failed", "group_id", group.ID, "error", err)
	}
	return nil
}

func (e *Engine) toOpen(ctx context.Context, group *models.Group) error {
	changed, err := e.store.UpdateGroupStatus(ctx, group.ID, models.GroupPending, models.GroupOpen, e.now().Unix())
	if err != nil {
		return err
	}
	if changed {
		metrics.GroupTransitions.WithLabelValues(string(models.GroupOpen)).Inc()
		slog.Info("group lost a member, re-opened", "group_id", group.ID, "group_number", group.GroupNumber)
	}
	return nil
}

func (e *Engine) toInProgress(ctx context.Context, group *models.Group, members []models.GroupMember) error {
	now := e.now()
	fireAt := now.Add(e.completionWindow)

	// The status CAS and the completion job commit together: a group is
	// never INPROGRESS without a pending COMPLETE_GROUP job, even if
	// the process dies right after the transition.
	job, err := e.store.StartGroupTesting(ctx, group.ID, now.Unix(), fireAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to start testing phase: %w", err)
	}
	if job == nil {
		return nil
	}

	metrics.GroupTransitions.WithLabelValues(string(models.GroupInProgress)).Inc()
	days := int(e.completionWindow.Hours() / 24)
	slog.Info("group entered testing phase",
		"group_id", group.ID,
		"group_number", group.GroupNumber,
		"completion_days", days,
		"fire_at", fireAt,
	)

	e.notifyMembers(ctx, group, members,
		"Testing phase started!",
		fmt.Sprintf("Every member of group #%d has a confirmed tester. Keep the apps installed for the next %d days.", group.GroupNumber, days),
	)

	// The completion transition is unconditional once scheduled; there
	// is no cancellation path.
	e.scheduler.arm(*job)
	return nil
}

func (e *Engine) notifyMembers(ctx context.Context, group *models.Group, members []models.GroupMember, title, message string) {
	for _, member := range members {
		if err := e.store.CreateNotification(ctx, &models.Notification{
			GroupID:   group.ID,
			UserID:    member.UserID,
			Title:     title,
			Message:   message,
			CreatedAt: e.now().Unix(),
		}); err != nil {
			slog.Error("group notification failed", "group_id", group.ID, "user_id", member.UserID, "error", err)
		}
	}
}

func memberEmails(members []models.GroupMember) []string {
	emails := make([]string, 0, len(members))
	for _, m := range members {
		if m.Email != "" {
			emails = append(emails, m.Email)
		}
	}
	return emails
}
