package cache

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atalogics/pkg/config"
)

// NewFromConfig opens the store selected by cfg.Type.
//
// "none" (or empty) yields a [NullStore]. "redis" and "mongo" connect
// eagerly so a bad address fails here rather than on the first request.
func NewFromConfig(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = discardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "", config.CacheNone:
		return NewNullStore(), nil

	case config.CacheMemory:
		logger.Debug("initializing memory cache", "max_entries", cfg.MaxEntries)
		size := cfg.MaxEntries
		if size <= 0 {
			size = config.DefaultMaxEntries
		}
		return NewMemoryStore(size), nil

	case config.CacheFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
			dir = d
		}
		logger.Debug("initializing file cache", "dir", dir)
		store, err := NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("create file cache: %w", err)
		}
		return store, nil

	case config.CacheRedis:
		logger.Debug("initializing redis cache")
		store, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		return store, nil

	case config.CacheMongo:
		logger.Debug("initializing mongo cache", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		store, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("create mongo cache: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("invalid cache type %q", cfg.Type)
	}
}
