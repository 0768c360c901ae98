package workflow

import "errors"

var (
	ErrSubmitInProgress   = errors.New("a submission is already in progress")
	ErrNotRetryable       = errors.New("last submission was rejected and cannot be retried")
	ErrCancelInProgress   = errors.New("reservation is already being cancelled")
	ErrNoOwner            = errors.New("no owner loaded")
	ErrInvalidState       = errors.New("action not allowed in current state")
	ErrUnknownReservation = errors.New("reservation not found for owner")
	ErrClosed             = errors.New("workflow closed")
)
