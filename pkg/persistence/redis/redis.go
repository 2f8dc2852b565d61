// Package redis provides a Redis-backed store for multi-process deployments.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/autoflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultNamespace = "autoflow:"
	scanBatch        = 100
)

type Store struct {
	client    goredis.UniversalClient
	namespace string
	logger    *slog.Logger
}

// NewStore connects to the redis:// URL and verifies the connection.
func NewStore(ctx context.Context, logger *slog.Logger, redisURL string) (*Store, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewStoreWithClient(client, logger), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client goredis.UniversalClient, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		namespace: defaultNamespace,
		logger:    logger,
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// Keys walks the keyspace with SCAN so large stores do not block the server.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		keys   = make([]string, 0)
		seen   = make(map[string]bool)
	)

	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.namespace+prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, key := range batch {
			key = strings.TrimPrefix(key, s.namespace)
			// SCAN may return a key more than once
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}

		if next == 0 {
			break
		}

		cursor = next
	}

	slices.Sort(keys)

	return keys, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Close(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to close redis client", "error", err)

		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
