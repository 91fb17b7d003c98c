package service

import (
	"context"
	"errors"
	"testing"

	"github.com/twentytesters/backend/internal/models"
)

func TestQueueJoin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner, app := createUserWithApp(t, store, "owner", 4)
	other, _ := createUserWithApp(t, store, "other", 4)

	batcher := &fakeBatcher{}
	svc := NewQueueService(store, batcher)

	t.Run("unknown app", func(t *testing.T) {
		err := svc.Join(ctx, "no-such-app", owner.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		err := svc.Join(ctx, app.ID, other.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if batcher.triggers != 0 {
			t.Errorf("expected no batch trigger on failure, got %d", batcher.triggers)
		}
	})

	t.Run("success triggers batching", func(t *testing.T) {
		if err := svc.Join(ctx, app.ID, owner.ID); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if batcher.triggers != 1 {
			t.Errorf("expected 1 batch trigger, got %d", batcher.triggers)
		}

		entries, err := svc.List(ctx, owner.ID)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].RemainingSlots != 4 {
			t.Errorf("remainingSlots: expected 4, got %d", entries[0].RemainingSlots)
		}
	})

	t.Run("re-join resets instead of duplicating", func(t *testing.T) {
		if err := svc.Join(ctx, app.ID, owner.ID); err != nil {
			t.Fatalf("re-join failed: %v", err)
		}
		entries, _ := svc.List(ctx, owner.ID)
		if len(entries) != 1 {
			t.Errorf("expected 1 entry after re-join, got %d", len(entries))
		}
	})

	t.Run("goal already met", func(t *testing.T) {
		fullApp := &models.App{
			UserID:               owner.ID,
			AppName:              "Finished App",
			PackageName:          "com.example.finished",
			TargetTesterCount:    3,
			FulfilledTesterCount: 3,
		}
		if err := store.CreateApp(ctx, fullApp); err != nil {
			t.Fatalf("CreateApp failed: %v", err)
		}

		err := svc.Join(ctx, fullApp.ID, owner.ID)
		if !errors.Is(err, ErrGoalAlreadyMet) {
			t.Errorf("expected ErrGoalAlreadyMet, got %v", err)
		}
	})
}

func TestQueueLeave(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner, app := createUserWithApp(t, store, "owner", 4)
	other, _ := createUserWithApp(t, store, "other", 4)

	svc := NewQueueService(store, &fakeBatcher{})
	if err := svc.Join(ctx, app.ID, owner.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	t.Run("not the owner", func(t *testing.T) {
		err := svc.Leave(ctx, app.ID, other.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("removes the entry", func(t *testing.T) {
		if err := svc.Leave(ctx, app.ID, owner.ID); err != nil {
			t.Fatalf("Leave failed: %v", err)
		}
		entries, _ := svc.List(ctx, owner.ID)
		if len(entries) != 0 {
			t.Errorf("expected empty queue, got %d entries", len(entries))
		}
	})

	t.Run("leaving again is a no-op", func(t *testing.T) {
		if err := svc.Leave(ctx, app.ID, owner.ID); err != nil {
			t.Errorf("expected idempotent leave, got %v", err)
		}
	})
}
