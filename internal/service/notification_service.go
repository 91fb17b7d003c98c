package service

import (
	"context"
	"fmt"

	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// NotificationService exposes the user's notification inbox.
type NotificationService struct {
	store storage.Store
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store storage.Store) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the user's notifications, newest first. With collapse
// set, consecutive notifications carrying the same message render as
// one (used by group activity views).
func (s *NotificationService) List(ctx context.Context, userID string, collapse bool) ([]models.Notification, error) {
	notifications, err := s.store.ListNotificationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if collapse {
		notifications = models.CollapseAdjacentMessages(notifications)
	}
	return notifications, nil
}

// MarkRead clears the unread flag on one of the user's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
