package v1

import (
	"time"

	"github.com/stacklok/keysync/internal/detection"
	"github.com/stacklok/keysync/internal/detector"
	"github.com/stacklok/keysync/internal/status"
	"github.com/stacklok/keysync/internal/tasks"
	"github.com/stacklok/keysync/internal/versions"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// StatusResponse is the full service status
type StatusResponse struct {
	Detection DetectionState                `json:"detection"`
	Regions   map[string]*status.SyncStatus `json:"regions"`
	Tasks     []tasks.TaskStatus            `json:"tasks"`
	Version   versions.VersionInfo          `json:"version"`
}

// DetectionState combines the policy outputs with the last run
type DetectionState struct {
	detection.Snapshot
	LastAttempt   *time.Time        `json:"lastAttempt,omitempty"`
	LastSummary   *detector.Summary `json:"lastSummary,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
	LastErrorKind string            `json:"lastErrorKind,omitempty"`
}

// DetectionConflictResponse is returned when a manual run cannot start
type DetectionConflictResponse struct {
	Error       string                 `json:"error"`
	ManualState *detection.ManualState `json:"manualState,omitempty"`
	NextDueAt   *time.Time             `json:"nextDueAt,omitempty"`
}

// CapabilityRequest reports whether background work is currently possible
type CapabilityRequest struct {
	Usable *bool `json:"usable"`
}

// CapabilityResponse echoes the applied capability and the resulting task states
type CapabilityResponse struct {
	Usable bool               `json:"usable"`
	Tasks  []tasks.TaskStatus `json:"tasks"`
}
