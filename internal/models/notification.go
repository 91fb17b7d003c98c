package models

// Notification is one entry in a user's inbox. Append-only.
type Notification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string `json:"id"`

	// GroupID is the related group, empty for queue-stage reminders.
	GroupID string `json:"groupId,omitempty"`

	// UserID is the recipient.
	UserID string `json:"userId"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// Unread is true until the user opens the notification.
	Unread bool `json:"unread"`

	// CreatedAt is the Unix timestamp when the notification was created.
	CreatedAt int64 `json:"createdAt"`
}

// CollapseAdjacentMessages filters a notification list so that runs of
// consecutive notifications carrying the same message render as one.
// Used by group activity views where repeated status events stack up.
func CollapseAdjacentMessages(notifications []Notification) []Notification {
	filtered := make([]Notification, 0, len(notifications))
	for i, n := range notifications {
		if i > 0 && n.Message == notifications[i-1].Message {
			continue
		}
		filtered = append(filtered, n)
	}
	return filtered
}
