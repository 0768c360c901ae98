package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidOwner    = errors.New("invalid owner id")
	ErrManagerClosed   = errors.New("session manager closed")
)
