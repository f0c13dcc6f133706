package model

import "errors"

var (
	// ErrNotFound means the key or record is absent. Absence is a valid,
	// non-error outcome for reads; it is never produced by a transport failure.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable means the backing store could not be reached or the call
	// timed out. Retryable. A timeout is never reported as a miss.
	ErrUnavailable = errors.New("store unavailable")

	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("validation error")

	// ErrConflict means a conditional write lost to a concurrent writer. The
	// identity resolver retries these internally and surfaces the exhausted
	// case wrapped together with ErrUnavailable.
	ErrConflict = errors.New("conflict")
)
