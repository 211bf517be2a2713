package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAmbiguousEvent = errors.New("ambiguous canonical event match")
	ErrInvalidRecord  = errors.New("invalid source record")
	ErrUnknownMarket  = errors.New("unknown market type")
	ErrLockHeld       = errors.New("lock already held")
)
