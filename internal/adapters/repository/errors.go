package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("account not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrInvalidRange    = errors.New("invalid date range")
	ErrClosed          = errors.New("store closed")
	ErrEmptyRange      = errors.New("no snapshots in range")
)
