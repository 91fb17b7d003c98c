package models

// JobKind identifies what a scheduled job does when it fires.
type JobKind string

// JobCompleteGroup transitions a group from INPROGRESS to COMPLETE.
const JobCompleteGroup JobKind = "COMPLETE_GROUP"

// ScheduledJob is a persisted one-shot job with a future fire time.
// Jobs survive process restarts: a recovery sweep on boot re-arms any
// job whose ExecutedAt is still zero.
type ScheduledJob struct {
	// ID is the unique identifier for the job (UUID format).
	ID string `json:"id"`

	// Kind selects the action taken when the job fires.
	Kind JobKind `json:"kind"`

	// GroupID is the group the job acts on.
	GroupID string `json:"groupId"`

	// FireAt is the Unix timestamp the job becomes due.
	FireAt int64 `json:"fireAt"`

	// ExecutedAt is the Unix timestamp the job ran, zero while pending.
	ExecutedAt int64 `json:"executedAt,omitempty"`
}
