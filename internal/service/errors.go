package service

import "errors"

var (
	// ErrUnauthorized is returned when the caller does not own the
	// resource acted upon.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced app, group or request
	// is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation does not apply to
	// the resource's current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrGoalAlreadyMet is returned when queueing an app whose tester
	// goal is already reached.
	ErrGoalAlreadyMet = errors.New("tester goal already met")

	// ErrGroupLocked is returned when leaving a group that is mid
	// verification (PENDING or INPROGRESS).
	ErrGroupLocked = errors.New("group is locked during testing")

	// ErrSelfRequest is returned when a member submits a tester request
	// for their own app.
	ErrSelfRequest = errors.New("cannot request to test your own app")

	// ErrForbidden is returned when a user acts on a request addressed
	// to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned on unresolved transactional contention.
	ErrConflict = errors.New("conflict, retry the operation")
)
