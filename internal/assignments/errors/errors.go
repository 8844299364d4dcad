package errors

import "errors"

var (
	ErrNotFound = errors.New("assignment not found")

	ErrInvalidID = errors.New("invalid assignment ID format")

	// ErrDuplicate means the engineer is already assigned to the project.
	ErrDuplicate = errors.New("engineer already assigned to project")

	ErrDayNotFound = errors.New("assignment day not found")

	ErrDuplicateDay = errors.New("assignment already has a day on this date")
)
