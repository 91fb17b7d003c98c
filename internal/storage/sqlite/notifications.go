package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/twentytesters/backend/internal/models"
)

// CreateNotification appends a notification to the user's inbox.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	var groupID any
	if n.GroupID != "" {
		groupID = n.GroupID
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications (id, group_id, user_id, title, message, unread, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)",
		n.ID, groupID, n.UserID, n.Title, n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	n.Unread = true
	return nil
}

// ListNotificationsByUser retrieves the user's inbox, newest first.
func (s *SQLiteStore) ListNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(group_id, ''), user_id, title, message, unread, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var (
			n      models.Notification
			unread int
		)
		if err := rows.Scan(&n.ID, &n.GroupID, &n.UserID, &n.Title, &n.Message, &unread, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Unread = unread != 0
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead clears the unread flag. Scoped to the owning
// user so one user cannot mark another's inbox.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET unread = 0 WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
