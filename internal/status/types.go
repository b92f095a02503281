package status

import (
	"time"

	"github.com/stacklok/keysync/internal/detector"
)

// SyncPhase represents the current phase of a region synchronization
type SyncPhase string

const (
	// SyncPhasePending means the region has never been synchronized
	SyncPhasePending SyncPhase = "Pending"

	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus represents the synchronization state of one region's archive
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastErrorKind classifies the last failure
	LastErrorKind string `json:"lastErrorKind,omitempty"`

	// StoredDays is the number of day packages held after the last successful sync
	StoredDays int `json:"storedDays,omitempty"`

	// DaysCommitted and HoursCommitted count the packages written by the last successful sync
	DaysCommitted  int `json:"daysCommitted,omitempty"`
	HoursCommitted int `json:"hoursCommitted,omitempty"`
}

// DetectionStatus is the persisted state of exposure detection.
// LastDetection is only advanced by a successful run.
type DetectionStatus struct {
	LastDetection *time.Time        `json:"lastDetection,omitempty"`
	LastAttempt   *time.Time        `json:"lastAttempt,omitempty"`
	LastSummary   *detector.Summary `json:"lastSummary,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
	LastErrorKind string            `json:"lastErrorKind,omitempty"`
}
