// Package kvstore selects the configured key/value backend.
package kvstore

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/memory"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/redis"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-forecast-verifier/internal/config"
)

// Store is a session.KVStore that holds a connection to release.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := redis.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
