package journal

import "errors"

var (
	ErrInvalidEntry = errors.New("invalid journal entry")
	ErrInvalidOwner = errors.New("invalid owner id")
)
