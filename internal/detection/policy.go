// Package detection decides when an exposure detection run is due.
//
// Every function here is a pure decision over the last successful detection
// timestamp and the current time. Callers own the timestamp and update it after
// a successful run.
package detection

import (
	"fmt"
	"time"
)

// Mode selects whether detection runs on schedule or waits for the user
type Mode string

const (
	// ModeAutomatic runs detection purely on schedule
	ModeAutomatic Mode = "automatic"

	// ModeManual requires an explicit user trigger
	ModeManual Mode = "manual"
)

// ParseMode converts a configuration value into a Mode. Empty means automatic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAutomatic:
		return ModeAutomatic, nil
	case ModeManual:
		return ModeManual, nil
	default:
		return "", fmt.Errorf("unknown detection mode %q", s)
	}
}

// ManualState is the user-facing trigger state in manual mode
type ManualState string

const (
	// ManualStatePossible means a manual run may be started now
	ManualStatePossible ManualState = "possible"

	// ManualStateWaiting means the next run is not due yet
	ManualStateWaiting ManualState = "waiting"
)

// DistantPast stands in for the minimum representable timestamp
var DistantPast = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// Policy holds the durations that govern detection timing
type Policy struct {
	// Validity is how long a successful detection result stays valid
	Validity time.Duration
	// Interval is the minimum time between two detection runs
	Interval time.Duration
	Mode     Mode
}

// ValidUntil returns last + Validity, or DistantPast when there is no last detection
func (p Policy) ValidUntil(last *time.Time) time.Time {
	if last == nil {
		return DistantPast
	}
	return last.Add(p.Validity)
}

// IsValid reports whether the last result still holds at now.
// A last detection in the future is never valid.
func (p Policy) IsValid(last *time.Time, now time.Time) bool {
	if last == nil || last.After(now) {
		return false
	}
	return now.Before(p.ValidUntil(last))
}

// NextDueAt returns when the next run becomes due
func (p Policy) NextDueAt(last *time.Time, now time.Time) time.Time {
	switch {
	case last == nil:
		return DistantPast.Add(p.Interval)
	case last.After(now):
		return now
	default:
		return last.Add(p.Interval)
	}
}

// IsDue reports whether a run should happen at now.
// A last detection in the future always forces a run.
func (p Policy) IsDue(last *time.Time, now time.Time) bool {
	if last != nil && last.After(now) {
		return true
	}
	return p.NextDueAt(last, now).Before(now)
}

// ManualState returns the trigger state in manual mode and nil in automatic mode
func (p Policy) ManualState(last *time.Time, now time.Time) *ManualState {
	if p.Mode != ModeManual {
		return nil
	}
	state := ManualStateWaiting
	if p.IsDue(last, now) {
		state = ManualStatePossible
	}
	return &state
}

// Snapshot captures every policy output at one instant
type Snapshot struct {
	LastDetection *time.Time   `json:"lastDetection,omitempty"`
	ValidUntil    time.Time    `json:"validUntil"`
	NextDueAt     time.Time    `json:"nextDueAt"`
	IsValid       bool         `json:"isValid"`
	IsDue         bool         `json:"isDue"`
	Mode          Mode         `json:"mode"`
	ManualState   *ManualState `json:"manualState,omitempty"`
}

// Evaluate computes a Snapshot of the policy at now
func (p Policy) Evaluate(last *time.Time, now time.Time) Snapshot {
	return Snapshot{
		LastDetection: last,
		ValidUntil:    p.ValidUntil(last),
		NextDueAt:     p.NextDueAt(last, now),
		IsValid:       p.IsValid(last, now),
		IsDue:         p.IsDue(last, now),
		Mode:          p.Mode,
		ManualState:   p.ManualState(last, now),
	}
}
