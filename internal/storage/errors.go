package storage

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint is hit
	// outside of the documented upsert paths.
	ErrDuplicate = errors.New("duplicate")
)
