package models

// RequestStatus is the confirmation state of a tester request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
)

// Request records one member's claim of having tested another member's
// app, and the app owner's accept/reject decision. At most one request
// exists per (requester, app owner, group); resubmission updates the
// existing record and resets it to PENDING.
type Request struct {
	// ID is the unique identifier for the request (UUID format).
	ID string `json:"id"`

	// GroupID is the group the claim was made in.
	GroupID string `json:"groupId"`

	// UserID is the requester: the member claiming to have tested the
	// other member's app.
	UserID string `json:"userId"`

	// UserRequested is the app owner asked to confirm the claim. Only
	// this user may decide the request.
	UserRequested string `json:"userRequested"`

	// Status is the confirmation state.
	Status RequestStatus `json:"status"`

	// ImageURL optionally points at uploaded evidence (screenshot).
	ImageURL string `json:"imageUrl,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}
