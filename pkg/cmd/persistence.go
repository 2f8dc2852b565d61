package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/autoflow/pkg/persistence"
	"github.com/dukex/autoflow/pkg/persistence/file"
	"github.com/dukex/autoflow/pkg/persistence/memory"
	"github.com/dukex/autoflow/pkg/persistence/postgresql"
	"github.com/dukex/autoflow/pkg/persistence/redis"
)

const (
	providerMemory   = "memory"
	providerFile     = "file"
	providerRedis    = "redis"
	providerPostgres = "postgres"
)

// NewStore opens the store named by the database URL scheme. An empty URL
// selects the in-memory store.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Store, error) {
	provider, location, err := parsePersistenceProvider(databaseURL)
	if err != nil {
		return nil, err
	}

	logger.Info("Opening store", "provider", provider)

	var store persistence.Store

	switch provider {
	case providerFile:
		store, err = file.NewStore(location)
	case providerRedis:
		store, err = redis.NewStore(ctx, logger, databaseURL)
	case providerPostgres:
		store, err = postgresql.NewStore(ctx, logger, databaseURL)
	default:
		store = memory.NewStore()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", provider, err)
	}

	return store, nil
}

func parsePersistenceProvider(databaseURL string) (string, string, error) {
	if databaseURL == "" {
		return providerMemory, "", nil
	}

	scheme, location, found := strings.Cut(databaseURL, "://")
	if !found {
		return "", "", fmt.Errorf("%w: %q has no scheme", persistence.ErrUnsupportedStore, databaseURL)
	}

	switch scheme {
	case "memory":
		return providerMemory, location, nil
	case "file":
		return providerFile, location, nil
	case "redis", "rediss":
		return providerRedis, location, nil
	case "postgres", "postgresql":
		return providerPostgres, location, nil
	default:
		return "", "", fmt.Errorf("%w: %s", persistence.ErrUnsupportedStore, scheme)
	}
}
