package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// AppService manages app registrations.
type AppService struct {
	store storage.Store
	now   func() time.Time
}

// NewAppService creates an AppService.
func NewAppService(store storage.Store) *AppService {
	return &AppService{store: store, now: time.Now}
}

// Create registers a new app for the user.
func (s *AppService) Create(ctx context.Context, userID, appName, packageName string, targetTesterCount int) (*models.App, error) {
	if appName == "" || packageName == "" {
		return nil, fmt.Errorf("app name and package name are required: %w", ErrInvalidState)
	}
	if targetTesterCount < 1 {
		return nil, fmt.Errorf("target tester count must be at least 1: %w", ErrInvalidState)
	}

	app := &models.App{
		UserID:            userID,
		AppName:           appName,
		PackageName:       packageName,
		TargetTesterCount: targetTesterCount,
		CreatedAt:         s.now().Unix(),
	}
	if err := s.store.CreateApp(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	slog.Info("app registered", "app_id", app.ID, "user_id", userID, "target_testers", targetTesterCount)
	return app, nil
}

// Get returns the app if the caller owns it.
func (s *AppService) Get(ctx context.Context, appID, userID string) (*models.App, error) {
	app, err := s.store.GetApp(ctx, appID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("app %s: %w", appID, ErrNotFound)
		}
		return nil, err
	}
	if app.UserID != userID {
		return nil, ErrUnauthorized
	}
	return app, nil
}

// List returns the user's apps, newest first.
func (s *AppService) List(ctx context.Context, userID string) ([]models.App, error) {
	apps, err := s.store.ListAppsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	return apps, nil
}
