package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/keysync/internal/status"
	pkgsync "github.com/stacklok/keysync/internal/sync"
)

// RunSync syncs every region without running detection
func (c *defaultCoordinator) RunSync(ctx context.Context) error {
	if !c.runMu.TryLock() {
		return ErrAlreadyRunning
	}
	defer c.runMu.Unlock()

	return c.syncAllRegions(ctx, c.now())
}

// syncAllRegions syncs the regions one after the other and joins the failures
func (c *defaultCoordinator) syncAllRegions(ctx context.Context, now time.Time) error {
	var errs []error
	for _, region := range c.config.Regions {
		if syncErr := c.performRegionSync(ctx, region, now); syncErr != nil {
			errs = append(errs, syncErr)
		}
	}
	return errors.Join(errs...)
}

// performRegionSync executes the sync pipeline for one region and records its status
func (c *defaultCoordinator) performRegionSync(ctx context.Context, region string, now time.Time) *pkgsync.Error {
	startTime := time.Now()

	// The deferred update always runs. Its default covers a sync killed by an unexpected error.
	var syncStatus status.SyncStatus
	if _, err := c.statusSvc.UpdateStatusAtomically(ctx, region, func(s *status.SyncStatus) bool {
		attempt := c.now()
		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.LastAttempt = &attempt
		s.AttemptCount++
		syncStatus = *s
		return true
	}); err != nil {
		slog.Warn("Failed to persist syncing status", "region", region, "error", err)
	}
	syncStatus.Phase = status.SyncPhaseFailed
	syncStatus.Message = fmt.Sprintf("Unexpected failure while syncing region %s", region)
	defer func() {
		if err := c.statusSvc.UpdateSyncStatus(ctx, region, &syncStatus); err != nil {
			slog.Error("Error updating sync status",
				"region", region,
				"error", err)
		}
	}()

	slog.Info("Starting sync operation", "region", region, "attempt", syncStatus.AttemptCount)

	result, syncErr := c.manager.Sync(ctx, region, now)
	syncDuration := time.Since(startTime)

	if syncErr != nil {
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = syncErr.Message
		syncStatus.LastErrorKind = string(syncErr.Kind)
		slog.Error("Sync failed",
			"region", region,
			"phase", syncErr.Phase,
			"kind", syncErr.Kind,
			"error", syncErr.Message)
		c.syncMetrics.RecordSyncDuration(ctx, region, syncDuration, false)
		return syncErr
	}

	completed := c.now()
	syncStatus.Phase = status.SyncPhaseComplete
	syncStatus.Message = "Sync completed successfully"
	syncStatus.LastSyncTime = &completed
	syncStatus.LastErrorKind = ""
	syncStatus.AttemptCount = 0
	syncStatus.StoredDays = result.StoredDays
	syncStatus.DaysCommitted = result.DaysCommitted
	syncStatus.HoursCommitted = result.HoursCommitted
	slog.Info("Sync completed successfully",
		"region", region,
		"days_committed", result.DaysCommitted,
		"hours_committed", result.HoursCommitted,
		"stored_days", result.StoredDays,
		"duration", syncDuration)
	c.syncMetrics.RecordSyncDuration(ctx, region, syncDuration, true)
	return nil
}
