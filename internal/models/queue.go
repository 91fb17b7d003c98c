package models

// QueueEntry is an app waiting in the matchmaking queue.
// At most one entry exists per app; re-joining the queue resets the
// entry in place rather than creating a duplicate.
type QueueEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// AppID is the queued app. Unique across the queue.
	AppID string `json:"appId"`

	// UserID is the app owner's user ID.
	UserID string `json:"userId"`

	// JoinedAt is the Unix timestamp when the entry (re-)entered the
	// queue. The matching window and reminder cadence are measured
	// from this point.
	JoinedAt int64 `json:"joinedAt"`

	// RemainingSlots is how many tester slots the app still needed
	// when it entered the queue. Decremented on each match.
	RemainingSlots int `json:"remainingSlots"`

	// ReminderStage is the highest reminder threshold already sent
	// for this wait. Zero means no reminder yet.
	ReminderStage int `json:"reminderStage"`

	// LastReminderAt is the Unix timestamp of the last reminder sent,
	// zero when none.
	LastReminderAt int64 `json:"lastReminderAt,omitempty"`

	// UserEmail is the owner's email, populated on reads for reminder
	// delivery. Not a stored column of the entry itself.
	UserEmail string `json:"-"`
}
