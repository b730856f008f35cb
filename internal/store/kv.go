package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a KV when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// KV is the byte-level backend the Store writes records to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
