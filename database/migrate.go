// Package database holds the PostgreSQL schema of the package store and the
// helpers that apply it.
package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Execer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// MigrateUp applies every up migration in order. Migrations are idempotent.
func MigrateUp(ctx context.Context, db Execer) error {
	files, err := migrationFiles(".up.sql")
	if err != nil {
		return err
	}
	return execAll(ctx, db, files)
}

// MigrateDown reverts the last steps migrations, or all of them when steps <= 0
func MigrateDown(ctx context.Context, db Execer, steps int) error {
	files, err := migrationFiles(".down.sql")
	if err != nil {
		return err
	}
	slices.Reverse(files)
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}
	return execAll(ctx, db, files)
}

func migrationFiles(suffix string) ([]string, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func execAll(ctx context.Context, db Execer, files []string) error {
	for _, name := range files {
		content, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}
