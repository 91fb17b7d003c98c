package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/twentytesters/backend/internal/lifecycle"
	"github.com/twentytesters/backend/internal/mailer"
	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func newTestEngine(t *testing.T, store *sqlite.SQLiteStore) *lifecycle.Engine {
	t.Helper()
	mail := mailer.LogMailer{}
	scheduler := lifecycle.NewScheduler(store, mail)
	t.Cleanup(scheduler.Stop)
	return lifecycle.NewEngine(store, mail, scheduler, 14*24*time.Hour)
}

func createUserWithApp(t *testing.T, store *sqlite.SQLiteStore, tag string, target int) (*models.User, *models.App) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		Name:  "Dev " + tag,
		Email: fmt.Sprintf("dev-%s@example.com", tag),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	app := &models.App{
		UserID:            user.ID,
		AppName:           "App " + tag,
		PackageName:       "com.example." + tag,
		TargetTesterCount: target,
	}
	if err := store.CreateApp(ctx, app); err != nil {
		t.Fatalf("CreateApp failed: %v", err)
	}
	return user, app
}

var groupSeq atomic.Int64

// createGroup matches n fresh users into one group, as the matchmaker
// would, and returns it with its members.
func createGroup(t *testing.T, store *sqlite.SQLiteStore, n int) (*models.Group, []models.GroupMember) {
	t.Helper()
	ctx := context.Background()

	seq := groupSeq.Add(1)
	entries := make([]models.QueueEntry, 0, n)
	for i := 0; i < n; i++ {
		user, app := createUserWithApp(t, store, fmt.Sprintf("g%d-m%d", seq, i), n-1)
		entry := &models.QueueEntry{
			AppID:          app.ID,
			UserID:         user.ID,
			JoinedAt:       int64(1000 + i),
			RemainingSlots: n - 1,
		}
		if err := store.UpsertQueueEntry(ctx, entry); err != nil {
			t.Fatalf("UpsertQueueEntry failed: %v", err)
		}
		entries = append(entries, *entry)
	}

	group, err := store.CreateMatchedGroup(ctx, entries, 2000)
	if err != nil {
		t.Fatalf("CreateMatchedGroup failed: %v", err)
	}
	members, err := store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListGroupMembers failed: %v", err)
	}
	return group, members
}

type fakeBatcher struct {
	triggers int
}

func (f *fakeBatcher) Trigger() { f.triggers++ }
