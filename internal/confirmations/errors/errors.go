package errors

import "errors"

var (
	ErrNotFound = errors.New("confirmation request not found")

	ErrInvalidID = errors.New("invalid confirmation request ID format")

	// ErrNotPending is returned by conditional writes whose status == pending
	// guard did not match.
	ErrNotPending = errors.New("confirmation request is not pending")

	ErrDuplicate = errors.New("confirmation request already exists")
)
