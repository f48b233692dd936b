package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrSessionActive   = errors.New("patrol session already active")
	ErrNoActiveSession = errors.New("no active patrol session")
	ErrAlreadyResolved = errors.New("checkpoint already resolved")
	ErrOutOfRange      = errors.New("not within checkpoint radius")
)
