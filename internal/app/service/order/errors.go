package order

import "errors"

var (
	// ErrMissingField rejects a settlement request before any write.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownUser means the user id did not resolve to a profile row.
	ErrUnknownUser = errors.New("unknown user")
	// ErrPersistence wraps a failed order write. No retry is attempted;
	// the caller decides.
	ErrPersistence = errors.New("order persistence failed")
)
