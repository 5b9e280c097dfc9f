package domain

import "errors"

// Error kinds shared across the engine, stores, and HTTP surface. Callers
// classify with errors.Is; everything except ErrStorageUnavailable is
// recoverable at the call site.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrItemNotFound       = errors.New("item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidState       = errors.New("invalid state")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
