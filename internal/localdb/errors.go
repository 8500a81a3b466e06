package localdb

import "errors"

// Store error kinds. Callers distinguish them with errors.Is and map them
// to transport-level responses.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("operation would violate an invariant")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
