// Package repository internal/domain/repository/kv_store.go
package repository

import "context"

// KeyValueStore defines a simple string store for client-side state
type KeyValueStore interface {
	// SetItem stores value under key, replacing any previous value
	SetItem(ctx context.Context, key, value string) error

	// GetItem returns the value for key and whether it was present
	GetItem(ctx context.Context, key string) (string, bool, error)

	// RemoveItem deletes key; removing a missing key is not an error
	RemoveItem(ctx context.Context, key string) error

	// Clear removes every item owned by the store
	Clear(ctx context.Context) error
}
