package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/twentytesters/backend/internal/models"
	"github.com/twentytesters/backend/internal/storage"
)

// matchedNotificationTitle and matchedNotificationMessage are written
// for every member of a freshly materialized group.
const (
	matchedNotificationTitle   = "You have been matched to a group!"
	matchedNotificationMessage = "A new group has been created for you! Coordinate with fellow members to reach the testing phase quickly."
)

// reserveGroupNumber claims the next value of the shared "Group"
// counter inside the given transaction. The counter row is created on
// first use.
func reserveGroupNumber(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO counters (model, sequence) VALUES ('Group', 1)
		ON CONFLICT(model) DO UPDATE SET sequence = sequence + 1
		RETURNING sequence`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve group number: %w", err)
	}
	return seq, nil
}

// CreateMatchedGroup materializes a group from the selected queue batch
// in one transaction. See storage.Store for the full contract.
func (s *SQLiteStore) CreateMatchedGroup(ctx context.Context, entries []models.QueueEntry, now int64) (*models.Group, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("cannot create a group from an empty batch")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	groupNumber, err := reserveGroupNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		GroupNumber: groupNumber,
		OwnerID:     entries[0].UserID,
		MaxMembers:  len(entries),
		Status:      models.GroupOpen,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, group_number, owner_id, max_members, status, started_test_date, created_at) VALUES (?, ?, ?, ?, ?, NULL, ?)",
		group.ID, group.GroupNumber, group.OwnerID, group.MaxMembers, group.Status, group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}

	// Every other member is a potential tester for each app.
	testerSlots := len(entries) - 1

	for _, entry := range entries {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_users (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			group.ID, entry.UserID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert group member: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_apps (group_id, app_id) VALUES (?, ?)",
			group.ID, entry.AppID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert group app: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE apps SET fulfilled_tester_count = fulfilled_tester_count + ? WHERE id = ?",
			testerSlots, entry.AppID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update app tester count: %w", err)
		}

		remaining := entry.RemainingSlots - testerSlots
		if remaining <= 0 {
			// Goal met: the app leaves the queue.
			_, err = tx.ExecContext(ctx, "DELETE FROM queue_entries WHERE id = ?", entry.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to delete queue entry: %w", err)
			}
		} else {
			// Still needy: restart the wait clock for a future match.
			_, err = tx.ExecContext(ctx, `
				UPDATE queue_entries
				SET remaining_slots = ?, joined_at = ?, reminder_stage = 0, last_reminder_at = NULL
				WHERE id = ?`,
				remaining, now, entry.ID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to refresh queue entry: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO notifications (id, group_id, user_id, title, message, unread, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)",
			uuid.New().String(), group.ID, entry.UserID, matchedNotificationTitle, matchedNotificationMessage, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert matched notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit matched group: %w", err)
	}

	return group, nil
}

const groupColumns = "id, group_number, owner_id, max_members, status, COALESCE(started_test_date, 0), created_at"

func scanGroup(row interface{ Scan(...any) error }, g *models.Group) error {
	return row.Scan(&g.ID, &g.GroupNumber, &g.OwnerID, &g.MaxMembers, &g.Status,
		&g.StartedTestDate, &g.CreatedAt)
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	row := s.db.QueryRowContext(ctx, "SELECT "+groupColumns+" FROM groups WHERE id = ?", id)
	if err := scanGroup(row, group); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroups retrieves all groups, newest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+groupColumns+" FROM groups ORDER BY group_number DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := scanGroup(rows, &g); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// ListGroupMembers retrieves the group's members with their user
// identity, in join order.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gu.group_id, gu.user_id, u.name, u.email, gu.joined_at
		FROM group_users gu
		JOIN users u ON u.id = gu.user_id
		WHERE gu.group_id = ?
		ORDER BY gu.joined_at ASC, gu.rowid ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// ListGroupApps retrieves the apps associated with the group.
func (s *SQLiteStore) ListGroupApps(ctx context.Context, groupID string) ([]models.App, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.app_name, a.package_name, a.target_tester_count, a.fulfilled_tester_count, a.created_at
		FROM group_apps ga
		JOIN apps a ON a.id = ga.app_id
		WHERE ga.group_id = ?
		ORDER BY a.created_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group apps: %w", err)
	}
	defer rows.Close()

	var apps []models.App
	for rows.Next() {
		var app models.App
		if err := scanApp(rows, &app); err != nil {
			return nil, fmt.Errorf("failed to scan group app: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group apps: %w", err)
	}
	return apps, nil
}

// AddGroupMember inserts a membership row. Adding an existing member
// is an error (callers check group state first).
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string, at int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_users (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveGroupMember deletes a membership row. Removing a non-member is
// a no-op.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_users WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

// UpdateGroupStatus performs the compare-and-set transition described
// on storage.Store. Entering INPROGRESS stamps the started test date.
func (s *SQLiteStore) UpdateGroupStatus(ctx context.Context, groupID string, from, to models.GroupStatus, now int64) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if to == models.GroupInProgress {
		res, err = s.db.ExecContext(ctx,
			"UPDATE groups SET status = ?, started_test_date = ? WHERE id = ? AND status = ?",
			to, now, groupID, from,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE groups SET status = ? WHERE id = ? AND status = ?",
			to, groupID, from,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update group status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// StartGroupTesting performs the PENDING -> INPROGRESS transition and
// inserts the completion job in one transaction. See storage.Store.
func (s *SQLiteStore) StartGroupTesting(ctx context.Context, groupID string, now, fireAt int64) (*models.ScheduledJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET status = ?, started_test_date = ? WHERE id = ? AND status = ?",
		models.GroupInProgress, now, groupID, models.GroupPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	job := &models.ScheduledJob{
		ID:      uuid.New().String(),
		Kind:    models.JobCompleteGroup,
		GroupID: groupID,
		FireAt:  fireAt,
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO scheduled_jobs (id, kind, group_id, fire_at, executed_at) VALUES (?, ?, ?, ?, NULL)",
		job.ID, job.Kind, job.GroupID, job.FireAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scheduled job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit testing transition: %w", err)
	}
	return job, nil
}
