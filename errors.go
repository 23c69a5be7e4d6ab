package vanish

import "errors"

var (
	// ErrNotFound is returned when an id does not resolve to a usable record:
	// it never existed, cleanup already removed it, or conversion has not
	// produced a download yet.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTypeMismatch is returned when the declared content type of an upload
	// does not match what the conversion endpoint expects.
	ErrTypeMismatch = errors.New("content type mismatch")
	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)
