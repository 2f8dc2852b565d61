// Package persistence provides the key/value storage contract and the typed
// repositories sessions and workflows are kept in.
package persistence

import (
	"context"
)

// Store is a key/value store. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound when key holds no value
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for a missing key
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys starting with prefix, sorted
	Keys(ctx context.Context, prefix string) ([]string, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
