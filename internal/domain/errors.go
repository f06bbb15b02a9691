package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrLockHeld      = errors.New("lock already held")
	ErrInvalidRecord = errors.New("invalid record")
	ErrNotOption     = errors.New("not an option symbol")
	ErrBlankRecord   = errors.New("blank record")
	ErrUnsupported   = errors.New("unsupported")
	ErrInvalidRange  = errors.New("invalid date range")
)
