package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/twentytesters/backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "community-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

// seedQueue creates n users, one app each, and a queue entry per app
// joined at the given times. Apps need 4 testers by default.
func seedQueue(t *testing.T, store *SQLiteStore, joinedAt []int64) []models.QueueEntry {
	t.Helper()
	ctx := context.Background()

	entries := make([]models.QueueEntry, 0, len(joinedAt))
	for i, at := range joinedAt {
		user := &models.User{
			Name:  fmt.Sprintf("Dev %d", i),
			Email: fmt.Sprintf("dev%d@example.com", i),
		}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		app := &models.App{
			UserID:            user.ID,
			AppName:           fmt.Sprintf("App %d", i),
			PackageName:       fmt.Sprintf("com.example.app%d", i),
			TargetTesterCount: 4,
		}
		if err := store.CreateApp(ctx, app); err != nil {
			t.Fatalf("CreateApp failed: %v", err)
		}

		entry := &models.QueueEntry{
			AppID:          app.ID,
			UserID:         user.ID,
			JoinedAt:       at,
			RemainingSlots: 4,
		}
		if err := store.UpsertQueueEntry(ctx, entry); err != nil {
			t.Fatalf("UpsertQueueEntry failed: %v", err)
		}
		entry.UserEmail = user.Email
		entries = append(entries, *entry)
	}
	return entries
}

func TestQueueEntryUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1000})
	entry := entries[0]

	// Simulate a reminder, then re-join.
	if err := store.AdvanceReminderStage(ctx, entry.ID, 1, 2000); err != nil {
		t.Fatalf("AdvanceReminderStage failed: %v", err)
	}

	rejoined := &models.QueueEntry{
		AppID:          entry.AppID,
		UserID:         entry.UserID,
		JoinedAt:       5000,
		RemainingSlots: 3,
	}
	if err := store.UpsertQueueEntry(ctx, rejoined); err != nil {
		t.Fatalf("re-join UpsertQueueEntry failed: %v", err)
	}

	all, err := store.ListQueueEntries(ctx)
	if err != nil {
		t.Fatalf("ListQueueEntries failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entry after re-join, got %d", len(all))
	}
	got := all[0]
	if got.ID != entry.ID {
		t.Errorf("expected re-join to keep the original row, got new id")
	}
	if got.JoinedAt != 5000 {
		t.Errorf("joinedAt: expected 5000, got %d", got.JoinedAt)
	}
	if got.RemainingSlots != 3 {
		t.Errorf("remainingSlots: expected 3, got %d", got.RemainingSlots)
	}
	if got.ReminderStage != 0 {
		t.Errorf("reminderStage: expected reset to 0, got %d", got.ReminderStage)
	}
	if got.LastReminderAt != 0 {
		t.Errorf("lastReminderAt: expected reset, got %d", got.LastReminderAt)
	}
	if got.UserEmail == "" {
		t.Error("expected user email populated on reads")
	}
}

func TestAdvanceReminderStageNeverMovesBackward(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1000})
	if err := store.AdvanceReminderStage(ctx, entries[0].ID, 2, 2000); err != nil {
		t.Fatalf("AdvanceReminderStage failed: %v", err)
	}
	if err := store.AdvanceReminderStage(ctx, entries[0].ID, 1, 3000); err != nil {
		t.Fatalf("AdvanceReminderStage failed: %v", err)
	}

	all, _ := store.ListQueueEntries(ctx)
	if all[0].ReminderStage != 2 {
		t.Errorf("reminderStage: expected 2, got %d", all[0].ReminderStage)
	}
}

func TestCreateMatchedGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1000, 2000, 3000, 4000, 5000})
	now := int64(10000)

	group, err := store.CreateMatchedGroup(ctx, entries, now)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	t.Run("group row", func(t *testing.T) {
		if group.GroupNumber != 1 {
			t.Errorf("groupNumber: expected 1, got %d", group.GroupNumber)
		}
		if group.MaxMembers != 5 {
			t.Errorf("maxMembers: expected 5, got %d", group.MaxMembers)
		}
		if group.Status != models.GroupOpen {
			t.Errorf("status: expected OPEN, got %s", group.Status)
		}
		if group.OwnerID != entries[0].UserID {
			t.Errorf("ownerID: expected first entry's user")
		}
	})

	t.Run("memberships and apps", func(t *testing.T) {
		members, err := store.ListGroupMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGroupMembers failed: %v", err)
		}
		if len(members) != 5 {
			t.Fatalf("expected 5 members, got %d", len(members))
		}

		apps, err := store.ListGroupApps(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListGroupApps failed: %v", err)
		}
		if len(apps) != 5 {
			t.Fatalf("expected 5 apps, got %d", len(apps))
		}
		for _, app := range apps {
			if app.FulfilledTesterCount != 4 {
				t.Errorf("fulfilledTesterCount: expected 4, got %d", app.FulfilledTesterCount)
			}
		}
	})

	t.Run("queue drained", func(t *testing.T) {
		// Every app needed exactly 4 testers and got 4.
		remaining, err := store.ListQueueEntries(ctx)
		if err != nil {
			t.Fatalf("ListQueueEntries failed: %v", err)
		}
		if len(remaining) != 0 {
			t.Errorf("expected empty queue, got %d entries", len(remaining))
		}
	})

	t.Run("matched notifications", func(t *testing.T) {
		for _, entry := range entries {
			notifications, err := store.ListNotificationsByUser(ctx, entry.UserID)
			if err != nil {
				t.Fatalf("ListNotificationsByUser failed: %v", err)
			}
			if len(notifications) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(notifications))
			}
			if notifications[0].GroupID != group.ID {
				t.Errorf("notification groupId: expected %s, got %s", group.ID, notifications[0].GroupID)
			}
		}
	})
}

func TestCreateMatchedGroupKeepsNeedyEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1000, 2000, 3000, 4000, 5000})

	// First entry still needs 10 testers; a 5-member match covers 4.
	entries[0].RemainingSlots = 10
	if err := store.UpsertQueueEntry(ctx, &entries[0]); err != nil {
		t.Fatalf("UpsertQueueEntry failed: %v", err)
	}

	now := int64(99999)
	if _, err := store.CreateMatchedGroup(ctx, entries, now); err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	remaining, err := store.ListQueueEntries(ctx)
	if err != nil {
		t.Fatalf("ListQueueEntries failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 refreshed entry, got %d", len(remaining))
	}
	if remaining[0].RemainingSlots != 6 {
		t.Errorf("remainingSlots: expected 6, got %d", remaining[0].RemainingSlots)
	}
	if remaining[0].JoinedAt != now {
		t.Errorf("joinedAt: expected refreshed to %d, got %d", now, remaining[0].JoinedAt)
	}
	if remaining[0].ReminderStage != 0 {
		t.Errorf("reminderStage: expected reset, got %d", remaining[0].ReminderStage)
	}
}

func TestGroupNumberIsMonotonic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := seedQueue(t, store, []int64{1, 2, 3, 4, 5})
	g1, err := store.CreateMatchedGroup(ctx, first, 100)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	second := seedQueue(t, store, []int64{6, 7, 8, 9, 10})
	g2, err := store.CreateMatchedGroup(ctx, second, 200)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	if g1.GroupNumber != 1 || g2.GroupNumber != 2 {
		t.Errorf("expected group numbers 1 and 2, got %d and %d", g1.GroupNumber, g2.GroupNumber)
	}
}

func TestUpdateGroupStatusCAS(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1, 2, 3, 4, 5})
	group, err := store.CreateMatchedGroup(ctx, entries, 100)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	changed, err := store.UpdateGroupStatus(ctx, group.ID, models.GroupOpen, models.GroupPending, 200)
	if err != nil {
		t.Fatalf("UpdateGroupStatus failed: %v", err)
	}
	if !changed {
		t.Fatal("expected first CAS to change the row")
	}

	// Same transition again: the from-status no longer matches.
	changed, err = store.UpdateGroupStatus(ctx, group.ID, models.GroupOpen, models.GroupPending, 300)
	if err != nil {
		t.Fatalf("UpdateGroupStatus failed: %v", err)
	}
	if changed {
		t.Error("expected repeated CAS to be a no-op")
	}

	changed, err = store.UpdateGroupStatus(ctx, group.ID, models.GroupPending, models.GroupInProgress, 400)
	if err != nil {
		t.Fatalf("UpdateGroupStatus failed: %v", err)
	}
	if !changed {
		t.Fatal("expected PENDING->INPROGRESS to change the row")
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Status != models.GroupInProgress {
		t.Errorf("status: expected INPROGRESS, got %s", got.Status)
	}
	if got.StartedTestDate != 400 {
		t.Errorf("startedTestDate: expected 400, got %d", got.StartedTestDate)
	}
}

func TestStartGroupTesting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1, 2, 3, 4, 5})
	group, err := store.CreateMatchedGroup(ctx, entries, 100)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	t.Run("rejected while not pending", func(t *testing.T) {
		job, err := store.StartGroupTesting(ctx, group.ID, 200, 300)
		if err != nil {
			t.Fatalf("StartGroupTesting failed: %v", err)
		}
		if job != nil {
			t.Fatal("expected no transition from OPEN")
		}
		jobs, _ := store.ListPendingJobs(ctx)
		if len(jobs) != 0 {
			t.Errorf("expected no jobs, got %d", len(jobs))
		}
	})

	if _, err := store.UpdateGroupStatus(ctx, group.ID, models.GroupOpen, models.GroupPending, 150); err != nil {
		t.Fatalf("UpdateGroupStatus failed: %v", err)
	}

	t.Run("transition and job commit together", func(t *testing.T) {
		job, err := store.StartGroupTesting(ctx, group.ID, 200, 300)
		if err != nil {
			t.Fatalf("StartGroupTesting failed: %v", err)
		}
		if job == nil {
			t.Fatal("expected the transition to happen")
		}
		if job.Kind != models.JobCompleteGroup || job.GroupID != group.ID || job.FireAt != 300 {
			t.Errorf("unexpected job: %+v", job)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Status != models.GroupInProgress {
			t.Errorf("status: expected INPROGRESS, got %s", got.Status)
		}
		if got.StartedTestDate != 200 {
			t.Errorf("startedTestDate: expected 200, got %d", got.StartedTestDate)
		}

		jobs, err := store.ListPendingJobs(ctx)
		if err != nil {
			t.Fatalf("ListPendingJobs failed: %v", err)
		}
		if len(jobs) != 1 {
			t.Fatalf("expected 1 pending job, got %d", len(jobs))
		}
	})

	t.Run("repeated call is a no-op", func(t *testing.T) {
		job, err := store.StartGroupTesting(ctx, group.ID, 400, 500)
		if err != nil {
			t.Fatalf("StartGroupTesting failed: %v", err)
		}
		if job != nil {
			t.Error("expected no second transition")
		}
		jobs, _ := store.ListPendingJobs(ctx)
		if len(jobs) != 1 {
			t.Errorf("expected still 1 pending job, got %d", len(jobs))
		}
	})
}

func TestRequestUpsertAndAcceptedCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := seedQueue(t, store, []int64{1, 2, 3, 4, 5})
	group, err := store.CreateMatchedGroup(ctx, entries, 100)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}

	requester := entries[0].UserID
	owner := entries[1].UserID

	req := &models.Request{GroupID: group.ID, UserID: requester, UserRequested: owner, ImageURL: "a.png"}
	if err := store.UpsertRequest(ctx, req); err != nil {
		t.Fatalf("UpsertRequest failed: %v", err)
	}

	changed, err := store.UpdateRequestStatus(ctx, req.ID, models.RequestAccepted, 200)
	if err != nil {
		t.Fatalf("UpdateRequestStatus failed: %v", err)
	}
	if !changed {
		t.Fatal("expected first decision to change the row")
	}

	// Same decision again: the status guard makes it a no-op.
	changed, err = store.UpdateRequestStatus(ctx, req.ID, models.RequestAccepted, 250)
	if err != nil {
		t.Fatalf("UpdateRequestStatus failed: %v", err)
	}
	if changed {
		t.Error("expected repeated decision to be a no-op")
	}

	// Resubmission updates in place and resets to PENDING.
	resubmit := &models.Request{GroupID: group.ID, UserID: requester, UserRequested: owner, ImageURL: "b.png"}
	if err := store.UpsertRequest(ctx, resubmit); err != nil {
		t.Fatalf("resubmit UpsertRequest failed: %v", err)
	}

	requests, err := store.ListRequestsByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListRequestsByGroup failed: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request after resubmission, got %d", len(requests))
	}
	if requests[0].Status != models.RequestPending {
		t.Errorf("status: expected PENDING after resubmission, got %s", requests[0].Status)
	}
	if requests[0].ImageURL != "b.png" {
		t.Errorf("imageUrl: expected updated evidence, got %s", requests[0].ImageURL)
	}

	count, err := store.CountAcceptedRequesters(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountAcceptedRequesters failed: %v", err)
	}
	if count != 0 {
		t.Errorf("accepted requesters: expected 0 after reset, got %d", count)
	}

	// Two accepted requests by the same requester count once.
	other := entries[2].UserID
	second := &models.Request{GroupID: group.ID, UserID: requester, UserRequested: other, Status: models.RequestAccepted}
	if err := store.UpsertRequest(ctx, second); err != nil {
		t.Fatalf("UpsertRequest failed: %v", err)
	}
	if _, err := store.UpdateRequestStatus(ctx, requests[0].ID, models.RequestAccepted, 300); err != nil {
		t.Fatalf("UpdateRequestStatus failed: %v", err)
	}

	count, err = store.CountAcceptedRequesters(ctx, group.ID)
	if err != nil {
		t.Fatalf("CountAcceptedRequesters failed: %v", err)
	}
	if count != 1 {
		t.Errorf("accepted requesters: expected 1 distinct, got %d", count)
	}
}

func TestScheduledJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.ScheduledJob{Kind: models.JobCompleteGroup, GroupID: "g1", FireAt: 1000}
	if err := store.CreateScheduledJob(ctx, job); err != nil {
		t.Fatalf("CreateScheduledJob failed: %v", err)
	}

	pending, err := store.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(pending))
	}

	won, err := store.MarkJobExecuted(ctx, job.ID, 2000)
	if err != nil {
		t.Fatalf("MarkJobExecuted failed: %v", err)
	}
	if !won {
		t.Fatal("expected first MarkJobExecuted to win")
	}

	won, err = store.MarkJobExecuted(ctx, job.ID, 3000)
	if err != nil {
		t.Fatalf("MarkJobExecuted failed: %v", err)
	}
	if won {
		t.Error("expected second MarkJobExecuted to lose")
	}

	pending, err = store.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending jobs, got %d", len(pending))
	}
}
