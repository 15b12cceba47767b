package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/damon-houk/currency-exchange-app/internal/domain/repository"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisKVStore implements the KeyValueStore interface on Redis. Every key is
// namespaced with prefix so Clear only touches this store's keys.
type RedisKVStore struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

// NewRedisKVStore parses a redis:// URL and creates a store on it
func NewRedisKVStore(redisURL, prefix string, log logger.Logger) (*RedisKVStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisKVStoreWithClient(redis.NewClient(opt), prefix, log), nil
}

// NewRedisKVStoreWithClient creates a store on an existing client
func NewRedisKVStoreWithClient(client *redis.Client, prefix string, log logger.Logger) *RedisKVStore {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisKVStore{client: client, prefix: prefix, logger: log}
}

func (s *RedisKVStore) key(key string) string {
	return s.prefix + key
}

// Ping checks connectivity
func (s *RedisKVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (s *RedisKVStore) Close() error {
	return s.client.Close()
}

// SetItem stores value under key without expiry
func (s *RedisKVStore) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		s.logger.Error("Redis set error", map[string]interface{}{"key": key, "error": err.Error()})
		return fmt.Errorf("failed to store item %s: %w", key, err)
	}
	return nil
}

// GetItem retrieves the value stored under key
func (s *RedisKVStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("Redis get error", map[string]interface{}{"key": key, "error": err.Error()})
		return "", false, fmt.Errorf("failed to retrieve item %s: %w", key, err)
	}
	return val, true, nil
}

// RemoveItem deletes key
func (s *RedisKVStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", key, err)
	}
	return nil
}

// Clear scans for the prefix and deletes every match
func (s *RedisKVStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	removed := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear store: %w", err)
			}
			removed += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan store: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		removed += len(batch)
	}

	s.logger.Debug("Redis store cleared", map[string]interface{}{"prefix": s.prefix, "removed": removed})
	return nil
}

var _ repository.KeyValueStore = (*RedisKVStore)(nil)
