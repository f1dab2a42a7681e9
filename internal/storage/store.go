// Package storage holds per-session key-value state: the gateway's equivalent of
// a browser's local storage. Values are opaque bytes; Local layers the typed
// entries on top.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is the storage port. Every entry is scoped to a session.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, session, key string) ([]byte, error)
	Set(ctx context.Context, session, key string, value []byte) error
	Delete(ctx context.Context, session, key string) error
	// DeleteSession removes every entry of a session.
	DeleteSession(ctx context.Context, session string) error
	Close() error
}
