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

// Scheduler runs persisted one-shot jobs at their fire time. Jobs are
// rows, not in-process timers: Recover on boot re-arms pending jobs and
// immediately fires any whose time already elapsed, so the multi-day
// completion transition survives restarts.
type Scheduler struct {
	store  storage.Store
	mailer mailer.Mailer
	now    func() time.Time

	// retryDelay spaces the attempts when firing hits a transient
	// store failure.
	retryDelay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store storage.Store, m mailer.Mailer) *Scheduler {
	return &Scheduler{
		store:      store,
		mailer:     m,
		now:        time.Now,
		retryDelay: 5 * time.Second,
		timers:     make(map[string]*time.Timer),
	}
}

// Recover re-registers all pending jobs. Overdue jobs fire synchronously
// before Recover returns; future jobs are armed on timers. Call once on
// boot, after the store is ready.
func (s *Scheduler) Recover(ctx context.Context) error {
	jobs, err := s.store.ListPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}

	now := s.now().Unix()
	var armed, fired int
	for _, job := range jobs {
		if job.FireAt <= now {
			s.fire(job)
			fired++
		} else {
			s.arm(job)
			armed++
		}
	}

	slog.Info("scheduler recovered", "fired", fired, "armed", armed)
	return nil
}

// Stop cancels all armed timers. Persisted jobs remain pending and are
// picked up by the next Recover.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) arm(job models.ScheduledJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	delay := time.Until(time.Unix(job.FireAt, 0))
	if delay < 0 {
		delay = 0
	}
	s.timers[job.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, job.ID)
		s.mu.Unlock()
		s.fire(job)
	})
}

// fire runs the job, retrying transient failures. The transition must
// not be silently dropped: after the attempts are exhausted the job row
// stays pending for the next recovery sweep.
func (s *Scheduler) fire(job models.ScheduledJob) {
	ctx := context.Background()

	const attempts = 3
	var err error
	for i := 1; i <= attempts; i++ {
		if err = s.run(ctx, job); err == nil {
			return
		}
		slog.Error("scheduled job attempt failed",
			"job_id", job.ID,
			"group_id", job.GroupID,
			"attempt", i,
			"error", err,
		)
		if i < attempts {
			time.Sleep(s.retryDelay * time.Duration(i))
		}
	}
	slog.Error("scheduled job exhausted retries, left pending for recovery",
		"job_id", job.ID, "group_id", job.GroupID, "error", err)
}

func (s *Scheduler) run(ctx context.Context, job models.ScheduledJob) error {
	if job.Kind != models.JobCompleteGroup {
		// Unknown kinds are marked executed so they cannot wedge the
		// recovery sweep forever.
		slog.Warn("unknown scheduled job kind", "job_id", job.ID, "kind", job.Kind)
		_, err := s.store.MarkJobExecuted(ctx, job.ID, s.now().Unix())
		return err
	}

	now := s.now().Unix()

	// The CAS is the idempotency point: a crash after the transition
	// but before the job is marked executed re-runs the job, and the
	// CAS reports unchanged so side effects fire at most once.
	changed, err := s.store.UpdateGroupStatus(ctx, job.GroupID, models.GroupInProgress, models.GroupComplete, now)
	if err != nil {
		return fmt.Errorf("failed to complete group: %w", err)
	}

	if changed {
		metrics.GroupTransitions.WithLabelValues(string(models.GroupComplete)).Inc()

		group, err := s.store.GetGroup(ctx, job.GroupID)
		if err != nil {
			return fmt.Errorf("failed to load completed group: %w", err)
		}
		members, err := s.store.ListGroupMembers(ctx, job.GroupID)
		if err != nil {
			return fmt.Errorf("failed to load completed group members: %w", err)
		}

		slog.Info("group completed", "group_id", group.ID, "group_number", group.GroupNumber)

		for _, member := range members {
			if err := s.store.CreateNotification(ctx, &models.Notification{
				GroupID:   group.ID,
				UserID:    member.UserID,
				Title:     "Testing period complete!",
				Message:   fmt.Sprintf("Group #%d finished its closed testing period. Congratulations!", group.GroupNumber),
				CreatedAt: now,
			}); err != nil {
				slog.Error("completion notification failed", "group_id", group.ID, "user_id", member.UserID, "error", err)
			}
		}
		if err := s.mailer.SendGroupComplete(memberEmails(members), group.GroupNumber); err != nil {
			slog.Warn("group complete email failed", "group_id", group.ID, "error", err)
		}
	}

	if _, err := s.store.MarkJobExecuted(ctx, job.ID, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to mark job executed: %w", err)
	}
	return nil
}
