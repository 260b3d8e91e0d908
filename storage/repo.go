package storage

import "context"

// Repo is the persistent key-value store behind the credential store.
// Implementations must survive process restarts (except the in-memory fake).
type Repo interface {
	// Get returns ErrNotFound (internal/errors) when the key is absent
	Get(ctx context.Context, key string) (string, error)

	// Set creates or replaces the value for key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error

	// Clear removes every key owned by this store
	Clear(ctx context.Context) error
}
