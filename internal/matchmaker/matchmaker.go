package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twentytesters/backend/internal/config"
	"github.com/twentytesters/backend/internal/mailer"
	"github.com/twentytesters/backend/internal/metrics"
	"github.com/twentytesters/backend/internal/storage"
)

// Recomputer re-evaluates a group's lifecycle state. Implemented by
// lifecycle.Engine.
type Recomputer interface {
	Recompute(ctx context.Context, groupID string) error
}

// Matchmaker drains the queue of waiting apps into testing groups.
// Process is safe to call concurrently and from a periodic sweep; an
// internal mutex serializes passes so two passes can never select the
// same queue entry.
type Matchmaker struct {
	store      storage.Store
	mailer     mailer.Mailer
	engine     Recomputer
	minMembers int
	maxMembers int
	window     time.Duration
	inviteLink string

	mu  sync.Mutex
	now func() time.Time
}

// New creates a Matchmaker with the given collaborators and limits.
func New(store storage.Store, m mailer.Mailer, engine Recomputer, cfg config.Config) *Matchmaker {
	return &Matchmaker{
		store:      store,
		mailer:     m,
		engine:     engine,
		minMembers: cfg.MinMembers,
		maxMembers: cfg.MaxMembers,
		window:     cfg.MatchWindow,
		inviteLink: cfg.InviteLink(),
		now:        time.Now,
	}
}

// Trigger runs a batching pass in the background. Used after queue
// joins, where the caller's request must not wait for matchmaking.
func (m *Matchmaker) Trigger() {
	go func() {
		if err := m.Process(context.Background()); err != nil {
			slog.Error("queue processing failed", "error", err)
		}
	}()
}

// Process runs batching passes until the queue can no longer produce a
// group. Each pass reloads the queue, dispatches due reminders, selects
// a batch inside the matching window, and materializes it atomically. A
// single call may create several groups when the queue is long.
func (m *Matchmaker) Process(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		entries, err := m.store.ListQueueEntries(ctx)
		if err != nil {
			return fmt.Errorf("failed to load queue: %w", err)
		}
		metrics.QueueSize.Set(float64(len(entries)))

		now := m.now()
		m.dispatchReminders(ctx, entries, now)

		if len(entries) < m.minMembers {
			return nil
		}

		windowLimit := entries[0].JoinedAt + int64(m.window.Seconds())
		selected := selectBatch(entries, windowLimit, m.minMembers, m.maxMembers)
		if selected == nil {
			// Not enough members arrived inside the matching window
			// yet; wait for more.
			return nil
		}

		group, err := m.store.CreateMatchedGroup(ctx, selected, now.Unix())
		if err != nil {
			return fmt.Errorf("failed to create matched group: %w", err)
		}

		metrics.GroupsCreated.Inc()
		slog.Info("group created",
			"group_id", group.ID,
			"group_number", group.GroupNumber,
			"members", group.MaxMembers,
		)

		emails := make([]string, 0, len(selected))
		for _, entry := range selected {
			if entry.UserEmail != "" {
				emails = append(emails, entry.UserEmail)
			}
		}
		if err := m.mailer.SendGroupMatched(emails, group.GroupNumber); err != nil {
			slog.Warn("group matched email failed", "group_id", group.ID, "error", err)
		}

		if err := m.engine.Recompute(ctx, group.ID); err != nil {
			slog.Error("lifecycle recompute failed after match", "group_id", group.ID, "error", err)
		}
	}
}
