package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Read when no object is stored under the key.
var ErrNotExist = errors.New("storage: object does not exist")

// Storage keeps whole objects addressed by key. Write replaces the object in
// full; there is no partial update and no locking between callers.
type Storage interface {
	// Read returns the full contents stored under key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the object under key with data.
	Write(ctx context.Context, key string, data []byte) error

	// Location describes where key lives, for logs and health output.
	Location(key string) string
}
