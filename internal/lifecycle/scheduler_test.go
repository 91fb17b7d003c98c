package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage/sqlite"
)

// inProgressGroup creates a group and walks it to INPROGRESS.
func inProgressGroup(t *testing.T, store *sqlite.SQLiteStore) (*models.Group, []models.GroupMember) {
	t.Helper()
	ctx := context.Background()

	group, members := matchedGroup(t, store, 5)
	transitions := [][2]models.GroupStatus{
		{models.GroupOpen, models.GroupPending},
		{models.GroupPending, models.GroupInProgress},
	}
	for _, tr := range transitions {
		changed, err := store.UpdateGroupStatus(ctx, group.ID, tr[0], tr[1], testEpoch.Unix())
		if err != nil || !changed {
			t.Fatalf("UpdateGroupStatus %s -> %s failed: changed=%v err=%v", tr[0], tr[1], changed, err)
		}
	}
	return group, members
}

func TestRecoverFiresOverdueJob(t *testing.T) {
	_, scheduler, store := newTestEngine(t)
	ctx := context.Background()

	group, members := inProgressGroup(t, store)

	// The job's fire time elapsed while the process was down.
	job := &models.ScheduledJob{
		Kind:    models.JobCompleteGroup,
		GroupID: group.ID,
		FireAt:  testEpoch.Add(-time.Hour).Unix(),
	}
	if err := store.CreateScheduledJob(ctx, job); err != nil {
		t.Fatalf("CreateScheduledJob failed: %v", err)
	}

	if err := scheduler.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Status != models.GroupComplete {
		t.Fatalf("status: expected COMPLETE after recovery, got %s", got.Status)
	}

	pending, _ := store.ListPendingJobs(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no pending jobs, got %d", len(pending))
	}

	// Matched notification plus the completion notification.
	for _, member := range members {
		notifications, err := store.ListNotificationsByUser(ctx, member.UserID)
		if err != nil {
			t.Fatalf("ListNotificationsByUser failed: %v", err)
		}
		if len(notifications) != 2 {
			t.Errorf("user %s: expected 2 notifications, got %d", member.UserID, len(notifications))
		}
	}

	t.Run("second recovery is a no-op", func(t *testing.T) {
		if err := scheduler.Recover(ctx); err != nil {
			t.Fatalf("Recover failed: %v", err)
		}
		notifications, _ := store.ListNotificationsByUser(ctx, members[0].UserID)
		if len(notifications) != 2 {
			t.Errorf("expected no duplicate notifications, got %d", len(notifications))
		}
	})
}

func TestRecoverArmsFutureJob(t *testing.T) {
	_, scheduler, store := newTestEngine(t)
	ctx := context.Background()

	group, _ := inProgressGroup(t, store)

	job := &models.ScheduledJob{
		Kind:    models.JobCompleteGroup,
		GroupID: group.ID,
		FireAt:  testEpoch.Add(14 * 24 * time.Hour).Unix(),
	}
	if err := store.CreateScheduledJob(ctx, job); err != nil {
		t.Fatalf("CreateScheduledJob failed: %v", err)
	}

	if err := scheduler.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	// The job stays pending and the group untouched until fire time.
	got, _ := store.GetGroup(ctx, group.ID)
	if got.Status != models.GroupInProgress {
		t.Errorf("status: expected still INPROGRESS, got %s", got.Status)
	}
	pending, _ := store.ListPendingJobs(ctx)
	if len(pending) != 1 {
		t.Errorf("expected 1 pending job, got %d", len(pending))
	}
}

func TestStaleJobLeavesLaterStatusAlone(t *testing.T) {
	_, scheduler, store := newTestEngine(t)
	ctx := context.Background()

	group, members := inProgressGroup(t, store)
	changed, err := store.UpdateGroupStatus(ctx, group.ID, models.GroupInProgress, models.GroupComplete, testEpoch.Unix())
	if err != nil || !changed {
		t.Fatalf("UpdateGroupStatus failed: changed=%v err=%v", changed, err)
	}

	// A job that fires after the group already completed must only
	// retire itself.
	job := &models.ScheduledJob{
		Kind:    models.JobCompleteGroup,
		GroupID: group.ID,
		FireAt:  testEpoch.Add(-time.Minute).Unix(),
	}
	if err := store.CreateScheduledJob(ctx, job); err != nil {
		t.Fatalf("CreateScheduledJob failed: %v", err)
	}

	if err := scheduler.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	pending, _ := store.ListPendingJobs(ctx)
	if len(pending) != 0 {
		t.Errorf("expected job retired, got %d pending", len(pending))
	}
	notifications, _ := store.ListNotificationsByUser(ctx, members[0].UserID)
	if len(notifications) != 1 {
		t.Errorf("expected only the matched notification, got %d", len(notifications))
	}
}

func TestUnknownJobKindIsRetired(t *testing.T) {
	_, scheduler, store := newTestEngine(t)
	ctx := context.Background()

	job := &models.ScheduledJob{
		Kind:    "REINDEX_APPS",
		GroupID: "",
		FireAt:  testEpoch.Add(-time.Minute).Unix(),
	}
	if err := store.CreateScheduledJob(ctx, job); err != nil {
		t.Fatalf("CreateScheduledJob failed: %v", err)
	}

	if err := scheduler.Recover(ctx); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	pending, _ := store.ListPendingJobs(ctx)
	if len(pending) != 0 {
		t.Errorf("expected unknown job retired, got %d pending", len(pending))
	}
}
