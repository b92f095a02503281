package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/keysync/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	mu             sync.RWMutex
	cachedStatuses map[string]*status.SyncStatus
	detection      *status.DetectionStatus
}

// NewFileStateService creates a new file-backed state service
func NewFileStateService(statusPersistence status.StatusPersistence) StateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
		cachedStatuses:    make(map[string]*status.SyncStatus),
		detection:         &status.DetectionStatus{},
	}
}

func (f *fileStateService) Initialize(ctx context.Context, regions []string) error {
	for _, region := range regions {
		f.loadOrInitializeRegionStatus(ctx, region)
	}

	detection, err := f.statusPersistence.LoadDetectionStatus(ctx)
	if err != nil {
		slog.Warn("Failed to load detection status, starting without a previous detection", "error", err)
		detection = &status.DetectionStatus{}
	} else if detection.LastDetection != nil {
		slog.Info("Loaded detection status", "last_detection", detection.LastDetection.Format(time.RFC3339))
	}

	f.mu.Lock()
	f.detection = detection
	f.mu.Unlock()
	return nil
}

func (f *fileStateService) ListSyncStatuses(_ context.Context) (map[string]*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string]*status.SyncStatus, len(f.cachedStatuses))
	for region, syncStatus := range f.cachedStatuses {
		statusCopy := *syncStatus
		result[region] = &statusCopy
	}
	return result, nil
}

func (f *fileStateService) GetSyncStatus(_ context.Context, region string) (*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	syncStatus, exists := f.cachedStatuses[region]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	statusCopy := *syncStatus
	return &statusCopy, nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	region string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, exists := f.cachedStatuses[region]
	if !exists {
		return false, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}

	// mutate a copy so a failed save leaves the cache untouched
	syncStatus := *current
	if !testAndUpdateFn(&syncStatus) {
		return false, nil
	}
	if err := f.statusPersistence.SaveStatus(ctx, region, &syncStatus); err != nil {
		return false, err
	}
	f.cachedStatuses[region] = &syncStatus
	return true, nil
}

func (f *fileStateService) UpdateSyncStatus(ctx context.Context, region string, syncStatus *status.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.statusPersistence.SaveStatus(ctx, region, syncStatus); err != nil {
		return err
	}
	statusCopy := *syncStatus
	f.cachedStatuses[region] = &statusCopy
	return nil
}

func (f *fileStateService) GetDetectionStatus(_ context.Context) (*status.DetectionStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	detectionCopy := *f.detection
	return &detectionCopy, nil
}

func (f *fileStateService) UpdateDetectionStatus(ctx context.Context, detectionStatus *status.DetectionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.statusPersistence.SaveDetectionStatus(ctx, detectionStatus); err != nil {
		return err
	}
	detectionCopy := *detectionStatus
	f.detection = &detectionCopy
	return nil
}

func (f *fileStateService) loadOrInitializeRegionStatus(ctx context.Context, region string) {
	syncStatus, err := f.statusPersistence.LoadStatus(ctx, region)
	if err != nil {
		slog.Warn("Failed to load sync status, initializing with defaults", "region", region, "error", err)
		syncStatus = &status.SyncStatus{}
	}

	// Assumes a single process owns the data directory; serve takes a file lock for that.
	switch {
	case syncStatus.Phase == "":
		slog.Info("No previous sync status found, initializing with defaults", "region", region)
		syncStatus.Phase = status.SyncPhasePending
		syncStatus.Message = "No previous sync status found"
		if err := f.statusPersistence.SaveStatus(ctx, region, syncStatus); err != nil {
			slog.Warn("Failed to persist default sync status", "region", region, "error", err)
		}
	case syncStatus.Phase == status.SyncPhaseSyncing:
		slog.Warn("Previous sync was interrupted (status=Syncing), resetting to Failed", "region", region)
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = "Previous sync was interrupted"
		if err := f.statusPersistence.SaveStatus(ctx, region, syncStatus); err != nil {
			slog.Warn("Failed to persist corrected sync status", "region", region, "error", err)
		}
	case syncStatus.LastSyncTime != nil:
		slog.Info("Loaded sync status",
			"region", region,
			"phase", syncStatus.Phase,
			"last_sync", syncStatus.LastSyncTime.Format(time.RFC3339),
			"stored_days", syncStatus.StoredDays)
	default:
		slog.Info("Loaded sync status", "region", region, "phase", syncStatus.Phase)
	}

	f.mu.Lock()
	f.cachedStatuses[region] = syncStatus
	f.mu.Unlock()
}
