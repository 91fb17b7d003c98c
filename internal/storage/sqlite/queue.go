package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/twentytesters/backend/internal/models"
)

// UpsertQueueEntry inserts a queue entry, or resets the existing entry
// for the same app. Re-joining restarts the wait clock and the reminder
// cadence.
func (s *SQLiteStore) UpsertQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.JoinedAt == 0 {
		entry.JoinedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (id, app_id, user_id, joined_at, remaining_slots, reminder_stage, last_reminder_at)
		VALUES (?, ?, ?, ?, ?, 0, NULL)
		ON CONFLICT(app_id) DO UPDATE SET
			joined_at = excluded.joined_at,
			remaining_slots = excluded.remaining_slots,
			reminder_stage = 0,
			last_reminder_at = NULL`,
		entry.ID, entry.AppID, entry.UserID, entry.JoinedAt, entry.RemainingSlots,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert queue entry: %w", err)
	}
	return nil
}

// DeleteQueueEntry removes the entry for the given app. Deleting a
// non-queued app is a no-op.
func (s *SQLiteStore) DeleteQueueEntry(ctx context.Context, appID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM queue_entries WHERE app_id = ?", appID)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}
	return nil
}

const queueSelect = `
	SELECT q.id, q.app_id, q.user_id, q.joined_at, q.remaining_slots,
	       q.reminder_stage, COALESCE(q.last_reminder_at, 0), u.email
	FROM queue_entries q
	JOIN users u ON u.id = q.user_id`

func (s *SQLiteStore) scanQueueEntries(rows *sql.Rows) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.ID, &e.AppID, &e.UserID, &e.JoinedAt, &e.RemainingSlots,
			&e.ReminderStage, &e.LastReminderAt, &e.UserEmail); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue entries: %w", err)
	}
	return entries, nil
}

// ListQueueEntries returns the full queue ordered by join time, oldest
// first. Entries with equal join times keep insertion order.
func (s *SQLiteStore) ListQueueEntries(ctx context.Context) ([]models.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, queueSelect+" ORDER BY q.joined_at ASC, q.rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()
	return s.scanQueueEntries(rows)
}

// ListQueueEntriesByUser returns the user's own queued apps, oldest first.
func (s *SQLiteStore) ListQueueEntriesByUser(ctx context.Context, userID string) ([]models.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		queueSelect+" WHERE q.user_id = ? ORDER BY q.joined_at ASC, q.rowid ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()
	return s.scanQueueEntries(rows)
}

// AdvanceReminderStage persists the reminder stage reached by a
// dispatcher pass. Stage only moves forward.
func (s *SQLiteStore) AdvanceReminderStage(ctx context.Context, entryID string, stage int, at int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE queue_entries SET reminder_stage = ?, last_reminder_at = ? WHERE id = ? AND reminder_stage < ?",
		stage, at, entryID, stage,
	)
	if err != nil {
		return fmt.Errorf("failed to advance reminder stage: %w", err)
	}
	return nil
}
