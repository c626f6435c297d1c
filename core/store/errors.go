package store

import "errors"

// Store-level error taxonomy. Every operation failure is recoverable at the
// call site; handlers map these onto HTTP statuses.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation failed")
)
