package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofrs/flock"

	"github.com/stacklok/keysync/internal/packages"
	pkgsync "github.com/stacklok/keysync/internal/sync"
	"github.com/stacklok/keysync/internal/sync/coordinator"
	"github.com/stacklok/keysync/internal/sync/state"
	"github.com/stacklok/keysync/internal/tasks"
	"github.com/stacklok/keysync/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Store holds the synchronized key packages
	Store packages.Store

	// SyncManager runs the per region pipeline and detection steps
	SyncManager pkgsync.Manager

	// StateService tracks sync and detection status
	StateService state.StateService

	// Scheduler fires the background tasks
	Scheduler tasks.Scheduler

	// Coordinator manages background synchronization and detection
	Coordinator coordinator.Coordinator

	// Telemetry holds the tracer and meter providers
	Telemetry *telemetry.Telemetry

	lock          *flock.Flock
	cancel        context.CancelFunc
	ownsStore     bool
	ownsTelemetry bool
}

// Close releases the resources acquired by BuildComponents.
// Injected store and telemetry are left to their owner.
func (c *AppComponents) Close(ctx context.Context) error {
	var errs []error

	if c.cancel != nil {
		c.cancel()
	}
	if c.ownsStore && c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ownsTelemetry && c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.lock != nil {
		if err := c.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		slog.Error("Failed to release application resources", "error", err)
		return err
	}
	return nil
}
