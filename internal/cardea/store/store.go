package store

import "errors"

var (
	// ErrNotFound is returned when a record with the given id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStateConflict is returned by a conditional update whose status
	// precondition no longer holds, e.g. deciding a request that is not
	// Pending. The record is left unchanged.
	ErrStateConflict = errors.New("status precondition failed")
)
