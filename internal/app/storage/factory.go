// Package storage opens the package store selected by the configuration.
// Both backends share the same retention options so the sync pipeline is
// unaware of which one is in use.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacklok/keysync/database"
	"github.com/stacklok/keysync/internal/config"
	"github.com/stacklok/keysync/internal/packages"
	"github.com/stacklok/keysync/internal/packages/postgres"
	"github.com/stacklok/keysync/internal/packages/sqlite"
)

// NewStore opens the configured package store and applies its schema.
// The caller owns the returned store and must Close it.
func NewStore(ctx context.Context, cfg *config.Config) (packages.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	opts := []packages.Option{
		packages.WithRetentionDays(cfg.Sync.RetentionDays),
		packages.WithHourCap(cfg.Sync.HourCap),
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverSQLite, "":
		return newSQLiteStore(ctx, cfg, opts)
	case config.StorageDriverPostgres:
		return newPostgresStore(ctx, cfg, opts)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

func newSQLiteStore(ctx context.Context, cfg *config.Config, opts []packages.Option) (packages.Store, error) {
	path := cfg.Storage.SQLite.Path
	if path == "" {
		path = filepath.Join(cfg.Sync.DataDir, config.DefaultSQLiteFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	slog.Info("Opening SQLite package store", "path", path)
	store, err := sqlite.Open(ctx, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return store, nil
}

func newPostgresStore(ctx context.Context, cfg *config.Config, opts []packages.Option) (packages.Store, error) {
	pg := cfg.Storage.Postgres
	if pg == nil {
		return nil, fmt.Errorf("postgres configuration is required for driver %s", config.StorageDriverPostgres)
	}

	connString, err := pg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	slog.Info("Connecting to PostgreSQL package store", "host", pg.Host, "database", pg.Database)
	pool, err := postgres.NewPool(ctx, postgres.Config{ConnString: connString, MaxConns: pg.MaxConns})
	if err != nil {
		return nil, err
	}

	if err := database.MigrateUp(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return postgres.New(pool, opts...), nil
}
