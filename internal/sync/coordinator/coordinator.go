package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/keysync/internal/config"
	"github.com/stacklok/keysync/internal/detection"
	"github.com/stacklok/keysync/internal/status"
	pkgsync "github.com/stacklok/keysync/internal/sync"
	"github.com/stacklok/keysync/internal/sync/state"
	"github.com/stacklok/keysync/internal/tasks"
	"github.com/stacklok/keysync/internal/telemetry"
)

const (
	// DetectionTaskName is the task running sync plus exposure detection
	DetectionTaskName = "exposure-notification"

	// TestResultsTaskName is the sync-only task
	TestResultsTaskName = "fetch-test-results"
)

var (
	// ErrAlreadyRunning is returned when a sync or detection pass is already in progress
	ErrAlreadyRunning = errors.New("a sync or detection run is already in progress")

	// ErrNotDue is returned when the detection policy does not allow a run yet
	ErrNotDue = errors.New("exposure detection is not due yet")
)

// Coordinator manages background sync and detection for every configured region
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/stacklok/keysync/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start initializes the state, registers and schedules the background tasks.
	// Blocks until context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error

	// RunDetection syncs every region and runs exposure detection.
	// manual marks a user triggered run, which in manual mode requires the policy to allow it.
	RunDetection(ctx context.Context, manual bool) (*status.DetectionStatus, error)

	// RunSync syncs every region without detection
	RunSync(ctx context.Context) error

	// DetectionSnapshot evaluates the detection policy against the persisted detection status
	DetectionSnapshot(ctx context.Context) (detection.Snapshot, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager   pkgsync.Manager
	statusSvc state.StateService
	scheduler tasks.Scheduler
	config    *config.Config
	policy    detection.Policy
	now       func() time.Time

	// serializes sync and detection passes
	runMu gosync.Mutex

	// Lifecycle management
	lifecycleMu gosync.Mutex
	cancelFunc  context.CancelFunc
	done        chan struct{}

	tracer           trace.Tracer
	syncMetrics      *telemetry.SyncMetrics
	detectionMetrics *telemetry.DetectionMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithDetectionMetrics sets the detection metrics for the coordinator
func WithDetectionMetrics(metrics *telemetry.DetectionMetrics) Option {
	return func(c *defaultCoordinator) {
		c.detectionMetrics = metrics
	}
}

// WithTracer sets the tracer used for detection spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = tracer
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	statusSvc state.StateService,
	scheduler tasks.Scheduler,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:   manager,
		statusSvc: statusSvc,
		scheduler: scheduler,
		config:    cfg,
		policy:    cfg.GetDetectionPolicy(),
		now:       time.Now,
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background coordination for all regions
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background coordinator",
		"regions", c.config.Regions,
		"detection_mode", c.policy.Mode)

	coordCtx, cancel := context.WithCancel(ctx)
	c.lifecycleMu.Lock()
	c.cancelFunc = cancel
	c.lifecycleMu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Background coordinator shutting down")
	}()

	if err := c.statusSvc.Initialize(ctx, c.config.Regions); err != nil {
		return fmt.Errorf("failed to initialize sync status: %w", err)
	}

	if err := c.registerTasks(); err != nil {
		return err
	}
	c.scheduler.OnCapabilityChanged(true)

	<-coordCtx.Done()
	slog.Info("Coordinator stopping")
	c.scheduler.CancelAll()
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	cancel := c.cancelFunc
	c.lifecycleMu.Unlock()
	if cancel != nil {
		slog.Info("Stopping coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// DetectionSnapshot evaluates the detection policy at the current time
func (c *defaultCoordinator) DetectionSnapshot(ctx context.Context) (detection.Snapshot, error) {
	detectionStatus, err := c.statusSvc.GetDetectionStatus(ctx)
	if err != nil {
		return detection.Snapshot{}, err
	}
	return c.policy.Evaluate(detectionStatus.LastDetection, c.now()), nil
}
