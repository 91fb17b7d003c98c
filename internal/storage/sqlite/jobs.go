package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/twentytesters/backend/internal/models"
)

// CreateScheduledJob persists a one-shot job with its fire time.
func (s *SQLiteStore) CreateScheduledJob(ctx context.Context, job *models.ScheduledJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scheduled_jobs (id, kind, group_id, fire_at, executed_at) VALUES (?, ?, ?, ?, NULL)",
		job.ID, job.Kind, job.GroupID, job.FireAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scheduled job: %w", err)
	}
	return nil
}

// ListPendingJobs retrieves all jobs that have not executed yet,
// soonest first. Used by the recovery sweep on boot.
func (s *SQLiteStore) ListPendingJobs(ctx context.Context) ([]models.ScheduledJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, group_id, fire_at, COALESCE(executed_at, 0)
		FROM scheduled_jobs
		WHERE executed_at IS NULL
		ORDER BY fire_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.ScheduledJob
	for rows.Next() {
		var j models.ScheduledJob
		if err := rows.Scan(&j.ID, &j.Kind, &j.GroupID, &j.FireAt, &j.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled jobs: %w", err)
	}
	return jobs, nil
}

// MarkJobExecuted records the job as run, only if it has not run yet.
func (s *SQLiteStore) MarkJobExecuted(ctx context.Context, id string, at int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_jobs SET executed_at = ? WHERE id = ? AND executed_at IS NULL",
		at, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job executed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}
