// Package postgres implements packages.Store on PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/keysync/internal/packages"
)

const dayHour = -1

// Store provides PostgreSQL-backed package persistence
type Store struct {
	pool   *pgxpool.Pool
	opts   packages.Options
	closed atomic.Bool
}

var _ packages.Store = (*Store)(nil)

// Config holds connection pool settings
type Config struct {
	ConnString string
	MaxConns   int32
}

// NewPool parses the connection string, sizes the pool and verifies connectivity
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// New wraps an existing pool. The schema must already be applied.
// The store takes ownership of the pool and closes it on Close.
func New(pool *pgxpool.Pool, opts ...packages.Option) *Store {
	return &Store{
		pool: pool,
		opts: packages.NewOptions(opts...),
	}
}

// Close releases the pool
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	if s.closed.CompareAndSwap(false, true) {
		s.pool.Close()
	}
	return nil
}

func (s *Store) ready(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() || s.pool == nil {
		return packages.NewStorageError(op, packages.ErrStoreClosed)
	}
	return nil
}

const upsertSQL = `
INSERT INTO packages (region, day, hour, package_bytes, signature_bytes, stored_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (region, day, hour) DO UPDATE SET
	package_bytes = EXCLUDED.package_bytes,
	signature_bytes = EXCLUDED.signature_bytes,
	stored_at = EXCLUDED.stored_at`

// PutDay stores the day package and removes the hours of that day in one transaction
func (s *Store) PutDay(ctx context.Context, region string, day packages.DayKey, pkg *packages.Package) error {
	if err := packages.ValidateKey(region, day); err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("package is required")
	}
	if err := s.ready(ctx, "put day"); err != nil {
		return err
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM packages WHERE region = $1 AND day = $2 AND hour <> $3`,
			region, string(day), dayHour,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, upsertSQL, region, string(day), dayHour, nonNil(pkg.Bin), nonNil(pkg.Signature))
		return err
	})
	return packages.NewStorageError("put day", err)
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
	if err := s.ready(ctx, "put hour"); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, upsertSQL, region, string(day), int(hour), nonNil(pkg.Bin), nonNil(pkg.Signature))
	return packages.NewStorageError("put hour", err)
}

// GetDay returns the day package or nil when absent
func (s *Store) GetDay(ctx context.Context, region string, day packages.DayKey) (*packages.Package, error) {
	if err := s.ready(ctx, "get day"); err != nil {
		return nil, err
	}

	var pkg packages.Package
	err := s.pool.QueryRow(ctx,
		`SELECT package_bytes, signature_bytes FROM packages WHERE region = $1 AND day = $2 AND hour = $3`,
		region, string(day), dayHour,
	).Scan(&pkg.Bin, &pkg.Signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, packages.NewStorageError("get day", err)
	}
	return &pkg, nil
}

// ListDays returns the stored days of region in ascending order
func (s *Store) ListDays(ctx context.Context, region string) ([]packages.DayKey, error) {
	if err := s.ready(ctx, "list days"); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT day FROM packages WHERE region = $1 AND hour = $2 ORDER BY day ASC`,
		region, dayHour,
	)
	if err != nil {
		return nil, packages.NewStorageError("list days", err)
	}
	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (packages.DayKey, error) {
		var day string
		err := row.Scan(&day)
		return packages.DayKey(day), err
	})
	if err != nil {
		return nil, packages.NewStorageError("list days", err)
	}
	if days == nil {
		days = []packages.DayKey{}
	}
	return days, nil
}

// ListHours returns the stored hours of the day in ascending order
func (s *Store) ListHours(ctx context.Context, region string, day packages.DayKey) ([]packages.HourKey, error) {
	if err := s.ready(ctx, "list hours"); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT hour FROM packages WHERE region = $1 AND day = $2 AND hour <> $3 ORDER BY hour ASC`,
		region, string(day), dayHour,
	)
	if err != nil {
		return nil, packages.NewStorageError("list hours", err)
	}
	hours, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (packages.HourKey, error) {
		var hour int16
		err := row.Scan(&hour)
		return packages.HourKey(hour), err
	})
	if err != nil {
		return nil, packages.NewStorageError("list hours", err)
	}
	if hours == nil {
		hours = []packages.HourKey{}
	}
	return hours, nil
}

// ListAll returns up to the hour cap of hour packages (latest first) or the day package
func (s *Store) ListAll(
	ctx context.Context, region string, day packages.DayKey, onlyHours bool,
) ([]*packages.Package, error) {
	if err := s.ready(ctx, "list all"); err != nil {
		return nil, err
	}

	query := `SELECT package_bytes, signature_bytes FROM packages
WHERE region = $1 AND day = $2 AND hour = $3`
	args := []any{region, string(day), dayHour}
	if onlyHours {
		query = `SELECT package_bytes, signature_bytes FROM packages
WHERE region = $1 AND day = $2 AND hour <> $3 ORDER BY hour DESC LIMIT $4`
		args = append(args, s.opts.HourCap)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, packages.NewStorageError("list all", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*packages.Package, error) {
		var pkg packages.Package
		err := row.Scan(&pkg.Bin, &pkg.Signature)
		return &pkg, err
	})
	if err != nil {
		return nil, packages.NewStorageError("list all", err)
	}
	if result == nil {
		result = []*packages.Package{}
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
	if err := s.ready(ctx, "prune"); err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM packages WHERE region = $1 AND day < $2`, region, string(oldest))
	return packages.NewStorageError("prune", err)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
