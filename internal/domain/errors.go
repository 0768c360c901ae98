package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAvailabilityFetch = errors.New("availability fetch failed")
	ErrConflict          = errors.New("slot already booked")
	ErrTransient         = errors.New("transient remote failure")
	ErrValidation        = errors.New("request rejected as invalid")
)

// AvailabilityFetchError is returned when the slot list for a scope could not be
// loaded. It wraps the transport failure (TransientError or ValidationError).
type AvailabilityFetchError struct {
	Scope Scope
	Err   error
}

func (e *AvailabilityFetchError) Error() string {
	return fmt.Sprintf("fetch availability (%s): %v", e.Scope, e.Err)
}

func (e *AvailabilityFetchError) Unwrap() error { return e.Err }

func (e *AvailabilityFetchError) Is(target error) bool { return target == ErrAvailabilityFetch }

// ConflictError means the remote service refused the submission because the
// slot is already reserved.
type ConflictError struct {
	ScheduleID int64
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule %d: %s", e.ScheduleID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// TransientError covers network failures, timeouts and 5xx responses. The same
// request may be retried.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// ValidationError means the remote service rejected the request itself. Retrying
// the same request cannot succeed.
type ValidationError struct {
	Op         string
	StatusCode int
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: remote status %d: %s", e.Op, e.StatusCode, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
