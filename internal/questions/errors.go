package questions

import "errors"

var (
	// ErrNotFound means the referenced question does not exist.
	ErrNotFound = errors.New("question not found")

	// ErrInvalidInput means a request was rejected before any read
	// (bad filter, malformed event id, non-positive count).
	ErrInvalidInput = errors.New("invalid input")
)
