// Package state keeps the sync and detection status which the service persists.
package state

import (
	"context"
	"errors"

	"github.com/stacklok/keysync/internal/status"
)

// ErrUnknownRegion is returned for a region that was not passed to Initialize
var ErrUnknownRegion = errors.New("unknown region")

// StateService provides methods for inspecting and updating the sync state of each region
// and the state of exposure detection.
//
//go:generate mockgen -destination=mocks/mock_state_service.go -package=mocks github.com/stacklok/keysync/internal/sync/state StateService
//nolint:revive // This name is fine
type StateService interface {
	// Initialize populates the state with the configured regions and the detection status.
	// It is called at startup. A region left Syncing by a previous process is reset to Failed.
	Initialize(ctx context.Context, regions []string) error
	// ListSyncStatuses lists the sync status of every known region.
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of the region, or ErrUnknownRegion.
	GetSyncStatus(ctx context.Context, region string) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of the region.
	UpdateSyncStatus(ctx context.Context, region string, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically fetches the status of the region, applies testAndUpdateFn
	// and persists the result if the function reports a change, all as one atomic action.
	// The returned boolean is the one returned by testAndUpdateFn.
	UpdateStatusAtomically(
		ctx context.Context,
		region string,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
	// GetDetectionStatus returns a copy of the detection status.
	GetDetectionStatus(ctx context.Context) (*status.DetectionStatus, error)
	// UpdateDetectionStatus overrides the detection status.
	UpdateDetectionStatus(ctx context.Context, detectionStatus *status.DetectionStatus) error
}
