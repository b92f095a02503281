// Package packages defines the local archive of key packages published by the remote service.
//
// Packages are addressed by (region, day, optional hour). The Store contract is shared by
// the SQLite and PostgreSQL backends found in the sub-packages.
package packages

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DayLayout is the ISO 8601 date layout used by DayKey
const DayLayout = "2006-01-02"

// ErrInvalidKey is returned when a day or hour key is malformed
var ErrInvalidKey = errors.New("invalid package key")

// DayKey is a calendar date in ISO 8601 form (YYYY-MM-DD).
// Lexicographic order equals chronological order.
type DayKey string

// HourKey is an hour of day (0-23) scoped to one DayKey
type HourKey int

// Package is an opaque binary payload plus its detached signature
type Package struct {
	Bin       []byte
	Signature []byte
}

// DaysAndHours combines a set of day keys and a set of hour keys.
// Hours are implicitly scoped to the current day.
type DaysAndHours struct {
	Days  []DayKey
	Hours []HourKey
}

// IsEmpty reports whether neither days nor hours are present
func (d DaysAndHours) IsEmpty() bool {
	return len(d.Days) == 0 && len(d.Hours) == 0
}

// Buckets holds packages returned by the remote service for a batched fetch
type Buckets struct {
	Days  map[DayKey]*Package
	Hours map[HourKey]*Package
}

// Today returns the DayKey of t in UTC
func Today(t time.Time) DayKey {
	return DayKey(t.UTC().Format(DayLayout))
}

// ParseDayKey validates s and returns it as a DayKey
func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("%w: day %q: %w", ErrInvalidKey, s, err)
	}
	return DayKey(s), nil
}

// Time returns the start of the day in UTC
func (d DayKey) Time() (time.Time, error) {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q: %w", ErrInvalidKey, d, err)
	}
	return t, nil
}

// AddDays returns the day n calendar days after d (n may be negative)
func (d DayKey) AddDays(n int) (DayKey, error) {
	t, err := d.Time()
	if err != nil {
		return "", err
	}
	return DayKey(t.AddDate(0, 0, n).Format(DayLayout)), nil
}

// Validate checks the day key format
func (d DayKey) Validate() error {
	_, err := d.Time()
	return err
}

// Validate checks the hour is within 0-23
func (h HourKey) Validate() error {
	if h < 0 || h > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidKey, h)
	}
	return nil
}

// ValidateKey checks the region and day parts of a package key
func ValidateKey(region string, day DayKey) error {
	if region == "" {
		return fmt.Errorf("%w: region is required", ErrInvalidKey)
	}
	return day.Validate()
}

// SortDays sorts days ascending and removes duplicates
func SortDays(days []DayKey) []DayKey {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

// SortHours sorts hours ascending and removes duplicates
func SortHours(hours []HourKey) []HourKey {
	out := slices.Clone(hours)
	slices.Sort(out)
	return slices.Compact(out)
}
