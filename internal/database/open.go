package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/pair-factory/internal/config"
	"github.com/rickgao/pair-factory/internal/database/sqlite"
	"github.com/rickgao/pair-factory/internal/kv"
)

// Open returns the store cfg selects. Postgres schemas are migrated first.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (kv.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Debug("using in-memory store")
		return kv.NewMemory(), nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Debug("opened sqlite store", "path", cfg.SQLite.Path)
		return store, nil

	case config.DriverPostgres:
		if err := Migrate(cfg.Postgres, logger); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Debug("opened postgres store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Name)
		return NewPostgresStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
