// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/twentytesters/backend/internal/models"
)

// Store defines the interface for domain persistence. All multi-row
// mutations (group materialization, status changes) are atomic inside
// the implementation, so callers never see partial state.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastActive(ctx context.Context, userID string, at int64) error

	// Apps.
	CreateApp(ctx context.Context, app *models.App) error
	GetApp(ctx context.Context, id string) (*models.App, error)
	ListAppsByUser(ctx context.Context, userID string) ([]models.App, error)

	// Queue. UpsertQueueEntry keeps at most one entry per app:
	// re-joining resets joinedAt, remainingSlots and the reminder state
	// of the existing row.
	UpsertQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	DeleteQueueEntry(ctx context.Context, appID string) error
	ListQueueEntries(ctx context.Context) ([]models.QueueEntry, error)
	ListQueueEntriesByUser(ctx context.Context, userID string) ([]models.QueueEntry, error)
	AdvanceReminderStage(ctx context.Context, entryID string, stage int, at int64) error

	// CreateMatchedGroup materializes a group from a selected queue
	// batch in a single transaction: it reserves the next group number
	// from the shared counter, creates the group with the batch as
	// members, associates each entry's app, increments each app's
	// fulfilled tester count by len(entries)-1, deletes or refreshes
	// the queue entries, and writes one "matched" notification per
	// member.
	CreateMatchedGroup(ctx context.Context, entries []models.QueueEntry, now int64) (*models.Group, error)

	// Groups.
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	ListGroupApps(ctx context.Context, groupID string) ([]models.App, error)
	AddGroupMember(ctx context.Context, groupID, userID string, at int64) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	// UpdateGroupStatus performs a compare-and-set on the group's
	// status and reports whether the row changed. When to is
	// INPROGRESS the started test date is set to now in the same
	// statement. The CAS is the idempotency point for lifecycle
	// transitions under concurrent recomputation.
	UpdateGroupStatus(ctx context.Context, groupID string, from, to models.GroupStatus, now int64) (bool, error)

	// StartGroupTesting moves the group from PENDING to INPROGRESS and
	// persists its delayed COMPLETE_GROUP job in the same transaction,
	// so a group can never be INPROGRESS without a pending completion
	// job. Returns the persisted job, or nil when the CAS did not
	// change the row.
	StartGroupTesting(ctx context.Context, groupID string, now, fireAt int64) (*models.ScheduledJob, error)

	// Requests. UpsertRequest keeps at most one request per
	// (requester, app owner, group): resubmission updates the evidence
	// and resets the status to PENDING.
	UpsertRequest(ctx context.Context, req *models.Request) error
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	ListRequestsByGroup(ctx context.Context, groupID string) ([]models.Request, error)

	// UpdateRequestStatus compare-and-sets the request's confirmation
	// state: the write only lands when the status differs, and the
	// result reports whether the row changed. Gates decision side
	// effects to once per actual change.
	UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus, at int64) (bool, error)

	// CountAcceptedRequesters counts the distinct requesters holding an
	// ACCEPTED request in the group. Feeds the PENDING -> INPROGRESS
	// transition.
	CountAcceptedRequesters(ctx context.Context, groupID string) (int, error)

	// Notifications.
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error

	// Scheduled jobs.
	CreateScheduledJob(ctx context.Context, job *models.ScheduledJob) error
	ListPendingJobs(ctx context.Context) ([]models.ScheduledJob, error)

	// MarkJobExecuted records the job as run, compare-and-set on the
	// job not having run yet. Reports whether this call won.
	MarkJobExecuted(ctx context.Context, id string, at int64) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
