package models

// GroupStatus is the lifecycle phase of a testing group.
// Transitions only move forward, except PENDING which re-opens when
// membership drops below capacity before testing begins.
type GroupStatus string

const (
	// GroupOpen: the group has free seats and accepts members.
	GroupOpen GroupStatus = "OPEN"

	// GroupPending: the group is full; members coordinate and confirm
	// each other as testers.
	GroupPending GroupStatus = "PENDING"

	// GroupInProgress: every member has been confirmed as a tester;
	// the mandatory testing period is running.
	GroupInProgress GroupStatus = "INPROGRESS"

	// GroupComplete: the testing period elapsed. Terminal.
	GroupComplete GroupStatus = "COMPLETE"
)

// Group is a fixed-size cohort of developers testing each other's apps.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// GroupNumber is a human-facing monotonic sequence number,
	// reserved from the shared counter at creation.
	GroupNumber int64 `json:"groupNumber"`

	// OwnerID is the user ID of the first matched member.
	OwnerID string `json:"ownerId"`

	// MaxMembers is the group capacity, fixed at creation to the
	// matched batch size.
	MaxMembers int `json:"maxMembers"`

	// Status is the current lifecycle phase.
	Status GroupStatus `json:"status"`

	// StartedTestDate is the Unix timestamp when the group entered
	// INPROGRESS, zero before that.
	StartedTestDate int64 `json:"startedTestDate,omitempty"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// GroupMember is a user's membership in a group, with the user's
// identity denormalized for list views.
type GroupMember struct {
	GroupID  string `json:"groupId"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	JoinedAt int64  `json:"joinedAt"`
}

// GroupDetail is the full group view: the group, its members, and its
// apps enriched with the viewing user's request state.
type GroupDetail struct {
	Group
	Members []GroupMember `json:"members"`
	Apps    []EnrichedApp `json:"apps"`
}
