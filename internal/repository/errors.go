package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned by a store that is not configured or could not be reached.
var ErrUnavailable = errors.New("store unavailable")
