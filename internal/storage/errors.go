package storage

import "errors"

var (
	// ErrNotFound is returned when a habit or schedule reference does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSchedule is returned when an active schedule already exists
	// for the same habit at the same time of day.
	ErrDuplicateSchedule = errors.New("an active schedule already exists at that time")

	// ErrConflict is returned when a conditional insert lost to an existing
	// row. Callers treat it as already-handled, not as a failure.
	ErrConflict = errors.New("record already exists")
)
