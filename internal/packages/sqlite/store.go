// Package sqlite implements packages.Store on top of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/stacklok/keysync/internal/db/sqlitemigrate"
	"github.com/stacklok/keysync/internal/packages"
	"github.com/stacklok/keysync/internal/packages/sqlite/migrations"
)

// dayHour marks the row holding the full-day package
const dayHour = -1

// Store provides SQLite-backed package persistence.
// All writes are serialized by mu, reads share it.
type Store struct {
	mu     sync.RWMutex
	sqlDB  *sql.DB
	opts   packages.Options
	closed bool
}

var _ packages.Store = (*Store)(nil)

// Open opens the SQLite database at path and applies migrations
func Open(ctx context.Context, path string, opts ...packages.Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		sqlDB: sqlDB,
		opts:  packages.NewOptions(opts...),
	}, nil
}

// Close releases the SQLite connection
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sqlDB == nil {
		return nil
	}
	s.closed = true
	return s.sqlDB.Close()
}

// ready must be called with mu held
func (s *Store) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed || s.sqlDB == nil {
		return packages.NewStorageError(op, packages.ErrStoreClosed)
	}
	return nil
}

// PutDay stores the day package and removes the hours of that day in one transaction
func (s *Store) PutDay(ctx context.Context, region string, day packages.DayKey, pkg *packages.Package) error {
	if err := packages.ValidateKey(region, day); err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("package is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx, "put day"); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return packages.NewStorageError("put day", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM packages WHERE region = ? AND day = ? AND hour <> ?`,
		region, string(day), dayHour,
	); err != nil {
		_ = tx.Rollback()
		return packages.NewStorageError("put day", err)
	}
	if err := upsert(ctx, tx, region, day, dayHour, pkg); err != nil {
		_ = tx.Rollback()
		return packages.NewStorageError("put day", err)
	}
	if err := tx.Commit(); err != nil {
		return packages.NewStorageError("put day", err)
	}
	return nil
}

// PutHour stores an hour package. A stored day entry is left as is.
func (s *Store) PutHour(
	ctx context.Context, region string, day packages.DayKey, hour packages.HourKey, pkg *packages.Package,
) error {
	if err := packages.ValidateKey(region, day); err != nil {
		return err
	}
	if err := hour.Validate(); err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("package is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx, "put hour"); err != nil {
		return err
	}
	return packages.NewStorageError("put hour", upsert(ctx, s.sqlDB, region, day, int(hour), pkg))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, region string, day packages.DayKey, hour int, pkg *packages.Package) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO packages (region, day, hour, package_bytes, signature_bytes, stored_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (region, day, hour) DO UPDATE SET
	package_bytes = excluded.package_bytes,
	signature_bytes = excluded.signature_bytes,
	stored_at = excluded.stored_at
`,
		region, string(day), hour, nonNil(pkg.Bin), nonNil(pkg.Signature), time.Now().UTC().UnixMilli(),
	)
	return err
}

// GetDay returns the day package or nil when absent
func (s *Store) GetDay(ctx context.Context, region string, day packages.DayKey) (*packages.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(ctx, "get day"); err != nil {
		return nil, err
	}

	var pkg packages.Package
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT package_bytes, signature_bytes FROM packages WHERE region = ? AND day = ? AND hour = ?`,
		region, string(day), dayHour,
	).Scan(&pkg.Bin, &pkg.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, packages.NewStorageError("get day", err)
	}
	return &pkg, nil
}

// ListDays returns the stored days of region in ascending order
func (s *Store) ListDays(ctx context.Context, region string) ([]packages.DayKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(ctx, "list days"); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT day FROM packages WHERE region = ? AND hour = ? ORDER BY day ASC`,
		region, dayHour,
	)
	if err != nil {
		return nil, packages.NewStorageError("list days", err)
	}
	defer rows.Close()

	days := []packages.DayKey{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, packages.NewStorageError("list days", err)
		}
		days = append(days, packages.DayKey(day))
	}
	if err := rows.Err(); err != nil {
		return nil, packages.NewStorageError("list days", err)
	}
	return days, nil
}

// ListHours returns the stored hours of the day in ascending order
func (s *Store) ListHours(ctx context.Context, region string, day packages.DayKey) ([]packages.HourKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(ctx, "list hours"); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT hour FROM packages WHERE region = ? AND day = ? AND hour <> ? ORDER BY hour ASC`,
		region, string(day), dayHour,
	)
	if err != nil {
		return nil, packages.NewStorageError("list hours", err)
	}
	defer rows.Close()

	hours := []packages.HourKey{}
	for rows.Next() {
		var hour int
		if err := rows.Scan(&hour); err != nil {
			return nil, packages.NewStorageError("list hours", err)
		}
		hours = append(hours, packages.HourKey(hour))
	}
	if err := rows.Err(); err != nil {
		return nil, packages.NewStorageError("list hours", err)
	}
	return hours, nil
}

// ListAll returns up to the hour cap of hour packages (latest first) or the day package
func (s *Store) ListAll(
	ctx context.Context, region string, day packages.DayKey, onlyHours bool,
) ([]*packages.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(ctx, "list all"); err != nil {
		return nil, err
	}

	query := `SELECT package_bytes, signature_bytes FROM packages
WHERE region = ? AND day = ? AND hour = ?`
	args := []any{region, string(day), dayHour}
	if onlyHours {
		query = `SELECT package_bytes, signature_bytes FROM packages
WHERE region = ? AND day = ? AND hour <> ? ORDER BY hour DESC LIMIT ?`
		args = append(args, s.opts.HourCap)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, packages.NewStorageError("list all", err)
	}
	defer rows.Close()

	result := []*packages.Package{}
	for rows.Next() {
		var pkg packages.Package
		if err := rows.Scan(&pkg.Bin, &pkg.Signature); err != nil {
			return nil, packages.NewStorageError("list all", err)
		}
		result = append(result, &pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, packages.NewStorageError("list all", err)
	}
	return result, nil
}

// Prune deletes day and hour entries older than the retention window ending at now
func (s *Store) Prune(ctx context.Context, region string, now packages.DayKey) error {
	if err := packages.ValidateKey(region, now); err != nil {
		return err
	}
	oldest, err := s.opts.Oldest(now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx, "prune"); err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`DELETE FROM packages WHERE region = ? AND day < ?`,
		region, string(oldest),
	)
	return packages.NewStorageError("prune", err)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
