package arc

import "errors"

var (
	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrBadInput is returned when a required value (payload, filename) is missing.
	ErrBadInput = errors.New("bad input")

	// ErrSizeExceeded is returned when a payload is larger than the configured cap.
	ErrSizeExceeded = errors.New("payload exceeds size limit")

	// ErrInvalidTransition is returned when an operation would break the file lifecycle.
	ErrInvalidTransition = errors.New("invalid state transition")
)
