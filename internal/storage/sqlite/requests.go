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

// UpsertRequest inserts a tester request, or resets the existing one
// for the same (group, requester, app owner) triple: resubmission
// refreshes the evidence and returns the request to PENDING.
func (s *SQLiteStore) UpsertRequest(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if req.CreatedAt == 0 {
		req.CreatedAt = now
	}
	if req.UpdatedAt == 0 {
		req.UpdatedAt = req.CreatedAt
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (id, group_id, user_id, user_requested, status, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id, user_id, user_requested) DO UPDATE SET
			status = excluded.status,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at`,
		req.ID, req.GroupID, req.UserID, req.UserRequested, req.Status, req.ImageURL,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert request: %w", err)
	}
	return nil
}

const requestColumns = "id, group_id, user_id, user_requested, status, image_url, created_at, updated_at"

func scanRequest(row interface{ Scan(...any) error }, r *models.Request) error {
	return row.Scan(&r.ID, &r.GroupID, &r.UserID, &r.UserRequested, &r.Status,
		&r.ImageURL, &r.CreatedAt, &r.UpdatedAt)
}

// GetRequest retrieves a request by ID.
func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	req := &models.Request{}
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM requests WHERE id = ?", id)
	if err := scanRequest(row, req); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("request %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// UpdateRequestStatus sets the request's confirmation state, guarded
// so the write only lands when the status actually differs. Reports
// whether the row changed; two concurrent identical decisions resolve
// to a single change.
func (s *SQLiteStore) UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus, at int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET status = ?, updated_at = ? WHERE id = ? AND status != ?",
		status, at, id, status,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// ListRequestsByGroup retrieves all requests in a group, oldest first.
func (s *SQLiteStore) ListRequestsByGroup(ctx context.Context, groupID string) ([]models.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE group_id = ? ORDER BY created_at ASC, rowid ASC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var r models.Request
		if err := scanRequest(rows, &r); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return requests, nil
}

// CountAcceptedRequesters counts distinct members holding an ACCEPTED
// request as requester in the group.
func (s *SQLiteStore) CountAcceptedRequesters(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT user_id) FROM requests WHERE group_id = ? AND status = ?",
		groupID, models.RequestAccepted,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted requesters: %w", err)
	}
	return count, nil
}
