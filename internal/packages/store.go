package packages

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultRetentionDays is the number of most recent days kept by Prune
	DefaultRetentionDays = 14

	// DefaultHourCap is the maximum number of hour packages surfaced by ListAll
	DefaultHourCap = 3
)

// ErrStoreClosed is wrapped by the StorageError returned from a closed store
var ErrStoreClosed = errors.New("package store is closed")

// StorageError reports an I/O or corruption failure in the package store.
// An absent key is not an error: lookups return a nil result instead.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("package store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store is durable keyed storage of packages with a retention policy.
// Implementations are safe for concurrent use.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/stacklok/keysync/internal/packages Store
type Store interface {
	// PutDay inserts or overwrites the day package and removes every hour package of that day
	PutDay(ctx context.Context, region string, day DayKey, pkg *Package) error

	// PutHour inserts or overwrites an hour package. The day entry is left untouched.
	PutHour(ctx context.Context, region string, day DayKey, hour HourKey, pkg *Package) error

	// GetDay returns the day package, or nil if it is not stored
	GetDay(ctx context.Context, region string, day DayKey) (*Package, error)

	// ListDays returns every stored day of the region in ascending order
	ListDays(ctx context.Context, region string) ([]DayKey, error)

	// ListHours returns the stored hours of the given day in ascending order
	ListHours(ctx context.Context, region string, day DayKey) ([]HourKey, error)

	// ListAll returns the packages used for detection.
	// With onlyHours it returns at most the hour cap of hour packages, most recent first.
	// Otherwise it returns the day package if present.
	ListAll(ctx context.Context, region string, day DayKey, onlyHours bool) ([]*Package, error)

	// Prune deletes every entry older than the retention window ending at now (inclusive)
	Prune(ctx context.Context, region string, now DayKey) error

	// Close releases the underlying resources. Later calls fail with ErrStoreClosed.
	Close() error
}

// Options configures retention behavior shared by all store backends
type Options struct {
	RetentionDays int
	HourCap       int
}

// Option configures store Options
type Option func(*Options)

// WithRetentionDays sets the number of days kept by Prune
func WithRetentionDays(days int) Option {
	return func(o *Options) {
		if days > 0 {
			o.RetentionDays = days
		}
	}
}

// WithHourCap sets the maximum number of hour packages returned by ListAll
func WithHourCap(hourCap int) Option {
	return func(o *Options) {
		if hourCap > 0 {
			o.HourCap = hourCap
		}
	}
}

// NewOptions applies opts over the defaults
func NewOptions(opts ...Option) Options {
	o := Options{
		RetentionDays: DefaultRetentionDays,
		HourCap:       DefaultHourCap,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Oldest returns the oldest day kept by Prune when the current day is now
func (o Options) Oldest(now DayKey) (DayKey, error) {
	return now.AddDays(-(o.RetentionDays - 1))
}
