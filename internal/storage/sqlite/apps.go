package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

const appColumns = "id, user_id, app_name, package_name, target_tester_count, fulfilled_tester_count, created_at"

func scanApp(row interface{ Scan(...any) error }, app *models.App) error {
	return row.Scan(&app.ID, &app.UserID, &app.AppName, &app.PackageName,
		&app.TargetTesterCount, &app.FulfilledTesterCount, &app.CreatedAt)
}

// CreateApp persists a new app registration.
func (s *SQLiteStore) CreateApp(ctx context.Context, app *models.App) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if app.CreatedAt == 0 {
		app.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO apps ("+appColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		app.ID, app.UserID, app.AppName, app.PackageName,
		app.TargetTesterCount, app.FulfilledTesterCount, app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert app: %w", err)
	}
	return nil
}

// GetApp retrieves an app by ID.
func (s *SQLiteStore) GetApp(ctx context.Context, id string) (*models.App, error) {
	app := &models.App{}
	row := s.db.QueryRowContext(ctx, "SELECT "+appColumns+" FROM apps WHERE id = ?", id)
	if err := scanApp(row, app); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("app %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return app, nil
}

// ListAppsByUser retrieves all apps owned by the given user, newest first.
func (s *SQLiteStore) ListAppsByUser(ctx context.Context, userID string) ([]models.App, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+appColumns+" FROM apps WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []models.App
	for rows.Next() {
		var app models.App
		if err := scanApp(rows, &app); err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate apps: %w", err)
	}
	return apps, nil
}
