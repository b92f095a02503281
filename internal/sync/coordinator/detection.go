package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stacklok/keysync/internal/detection"
	"github.com/stacklok/keysync/internal/detector"
	"github.com/stacklok/keysync/internal/otel"
	"github.com/stacklok/keysync/internal/status"
	pkgsync "github.com/stacklok/keysync/internal/sync"
)

const detectionResultSuccess = "success"

// RunDetection syncs every region, then materializes the packages and runs the detector.
// The detection status is updated after every attempt, the last detection only on success.
func (c *defaultCoordinator) RunDetection(ctx context.Context, manual bool) (*status.DetectionStatus, error) {
	detectionStatus, err := c.statusSvc.GetDetectionStatus(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !c.allowed(detectionStatus.LastDetection, now, manual) {
		return detectionStatus, ErrNotDue
	}

	if !c.runMu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer c.runMu.Unlock()

	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.RunDetection",
		otel.AttrTask.String(DetectionTaskName))
	defer span.End()

	slog.Info("Starting exposure detection", "manual", manual, "regions", c.config.Regions)
	startTime := time.Now()

	summary, runErr := c.detect(ctx, now)
	duration := time.Since(startTime)

	finished := c.now()
	detectionStatus.LastAttempt = &finished
	result := detectionResultSuccess
	if runErr != nil {
		otel.RecordError(span, runErr)
		detectionStatus.LastError = runErr.Error()
		detectionStatus.LastErrorKind = errorKind(runErr)
		result = detectionStatus.LastErrorKind
		slog.Error("Exposure detection failed", "error", runErr, "kind", result, "duration", duration)
	} else {
		detectionStatus.LastDetection = &finished
		detectionStatus.LastSummary = summary
		detectionStatus.LastError = ""
		detectionStatus.LastErrorKind = ""
		c.detectionMetrics.RecordMatchedKeys(ctx, summary.MatchedKeyCount)
		slog.Info("Exposure detection completed",
			"matched_keys", summary.MatchedKeyCount,
			"files", summary.FileCount,
			"duration", duration)
	}
	c.detectionMetrics.RecordRun(ctx, result, duration)

	if err := c.statusSvc.UpdateDetectionStatus(ctx, detectionStatus); err != nil {
		slog.Error("Error updating detection status", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return detectionStatus, runErr
}

// allowed applies the detection policy to a run request
func (c *defaultCoordinator) allowed(last *time.Time, now time.Time, manual bool) bool {
	if !manual {
		return c.policy.Mode == detection.ModeAutomatic && c.policy.IsDue(last, now)
	}
	state := c.policy.ManualState(last, now)
	return state == nil || *state == detection.ManualStatePossible
}

// detect runs the whole pipeline. Any region failing to sync aborts the run.
func (c *defaultCoordinator) detect(ctx context.Context, now time.Time) (*detector.Summary, error) {
	if err := c.syncAllRegions(ctx, now); err != nil {
		return nil, err
	}

	materialized, syncErr := c.manager.Materialize(ctx, c.config.Regions, now)
	if syncErr != nil {
		return nil, syncErr
	}
	defer func() {
		if err := c.manager.Cleanup(materialized); err != nil {
			slog.Warn("Failed to remove materialized packages", "dir", materialized.Dir, "error", err)
		}
	}()

	detectionConfig, syncErr := c.manager.DownloadConfiguration(ctx)
	if syncErr != nil {
		return nil, syncErr
	}

	summary, syncErr := c.manager.Detect(ctx, detectionConfig, materialized)
	if syncErr != nil {
		return nil, syncErr
	}
	return summary, nil
}

// errorKind returns the kind of the first sync error in err
func errorKind(err error) string {
	var syncErr *pkgsync.Error
	if errors.As(err, &syncErr) {
		return string(syncErr.Kind)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return string(pkgsync.KindExpired)
	}
	return "unknown"
}
