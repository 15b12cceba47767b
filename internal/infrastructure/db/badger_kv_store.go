// Package db internal/infrastructure/db/badger_kv_store.go
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/damon-houk/currency-exchange-app/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

const kvPrefix = "kv:"

// BadgerKVStore implements the KeyValueStore interface using BadgerDB
type BadgerKVStore struct {
	db *badger.DB
}

// NewBadgerKVStore creates a store on an already opened database
func NewBadgerKVStore(db *badger.DB) *BadgerKVStore {
	return &BadgerKVStore{db: db}
}

// OpenBadger opens a database at dir, or an in-memory one when inMemory is set
func OpenBadger(dir string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return db, nil
}

// SetItem stores value under key
func (s *BadgerKVStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(kvPrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", key, err)
	}
	return nil
}

// GetItem retrieves the value stored under key
func (s *BadgerKVStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvPrefix + key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to retrieve item %s: %w", key, err)
	}

	return value, true, nil
}

// RemoveItem deletes key
func (s *BadgerKVStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(kvPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

// Clear drops every key written through this store
func (s *BadgerKVStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(kvPrefix)); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

var _ repository.KeyValueStore = (*BadgerKVStore)(nil)
