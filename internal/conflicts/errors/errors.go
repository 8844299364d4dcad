package errors

import "errors"

var (
	ErrNotFound = errors.New("conflict not found")

	ErrInvalidID = errors.New("invalid conflict ID format")

	ErrAlreadyResolved = errors.New("conflict already resolved")
)
