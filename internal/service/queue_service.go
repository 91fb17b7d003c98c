// Package service implements the application operations exposed by the
// API layer: queue join/leave, group views and membership, tester
// requests, notifications, apps and authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twentytesters/backend/internal/metrics"
	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// BatchTrigger kicks off an asynchronous matchmaking pass. Implemented
// by matchmaker.Matchmaker.
type BatchTrigger interface {
	Trigger()
}

// QueueService handles queue membership for apps.
type QueueService struct {
	store   storage.Store
	batcher BatchTrigger
	now     func() time.Time
}

// NewQueueService creates a QueueService. The batcher is triggered
// after every successful join.
func NewQueueService(store storage.Store, batcher BatchTrigger) *QueueService {
	return &QueueService{store: store, batcher: batcher, now: time.Now}
}

// Join puts the app into the matchmaking queue, or resets its existing
// entry. Re-joining restarts the wait clock and the reminder cadence.
func (s *QueueService) Join(ctx context.Context, appID, userID string) error {
	app, err := s.store.GetApp(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("app %s: %w", appID, ErrNotFound)
		}
		return err
	}
	if app.UserID != userID {
		return ErrUnauthorized
	}

	remaining := app.RemainingSlots()
	if remaining <= 0 {
		return ErrGoalAlreadyMet
	}

	entry := &models.QueueEntry{
		AppID:          appID,
		UserID:         userID,
		JoinedAt:       s.now().Unix(),
		RemainingSlots: remaining,
	}
	if err := s.store.UpsertQueueEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to join queue: %w", err)
	}

	metrics.QueueJoins.Inc()
	slog.Info("app joined queue", "app_id", appID, "user_id", userID, "remaining_slots", remaining)

	// Matchmaking runs after the entry is committed, off the request
	// path.
	s.batcher.Trigger()
	return nil
}

// Leave removes the app from the queue. Leaving a non-queued app is a
// no-op success.
func (s *QueueService) Leave(ctx context.Context, appID, userID string) error {
	app, err := s.store.GetApp(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("app %s: %w", appID, ErrNotFound)
		}
		return err
	}
	if app.UserID != userID {
		return ErrUnauthorized
	}

	if err := s.store.DeleteQueueEntry(ctx, appID); err != nil {
		return fmt.Errorf("failed to leave queue: %w", err)
	}
	slog.Info("app left queue", "app_id", appID, "user_id", userID)
	return nil
}

// List returns the caller's queued apps, oldest first.
func (s *QueueService) List(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	entries, err := s.store.ListQueueEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}
