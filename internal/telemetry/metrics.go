package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/keysync/sync"

	// DetectionMetricsMeterName is the name used for the detection metrics meter
	DetectionMetricsMeterName = "github.com/stacklok/keysync/detection"

	// TaskMetricsMeterName is the name used for the background task metrics meter
	TaskMetricsMeterName = "github.com/stacklok/keysync/tasks"
)

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration      metric.Float64Histogram
	packagesCommitted metric.Int64Counter
	storedDays        metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"keysync_sync_duration_seconds",
		metric.WithDescription("Duration of region sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	packagesCommitted, err := meter.Int64Counter(
		"keysync_packages_committed_total",
		metric.WithDescription("Number of packages fetched and written to the local store"),
		metric.WithUnit("{package}"),
	)
	if err != nil {
		return nil, err
	}

	storedDays, err := meter.Int64Gauge(
		"keysync_stored_days",
		metric.WithDescription("Number of day packages held in the local store per region"),
		metric.WithUnit("{day}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:      syncDuration,
		packagesCommitted: packagesCommitted,
		storedDays:        storedDays,
	}, nil
}

// RecordSyncDuration records the duration of a sync operation for a region
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, region string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("region", region),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordPackagesCommitted adds committed packages of the given kind ("day" or "hour")
func (m *SyncMetrics) RecordPackagesCommitted(ctx context.Context, region, kind string, count int) {
	if m == nil || m.packagesCommitted == nil || count == 0 {
		return
	}

	m.packagesCommitted.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("kind", kind),
	))
}

// RecordStoredDays records how many days are stored for a region after a sync
func (m *SyncMetrics) RecordStoredDays(ctx context.Context, region string, count int) {
	if m == nil || m.storedDays == nil {
		return
	}

	m.storedDays.Record(ctx, int64(count), metric.WithAttributes(attribute.String("region", region)))
}

// DetectionMetrics holds the OpenTelemetry instruments for detection runs
type DetectionMetrics struct {
	runDuration  metric.Float64Histogram
	matchedKeys  metric.Int64Gauge
	runsByResult metric.Int64Counter
}

// NewDetectionMetrics creates a new DetectionMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewDetectionMetrics(provider metric.MeterProvider) (*DetectionMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(DetectionMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"keysync_detection_duration_seconds",
		metric.WithDescription("Duration of full detection runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	matchedKeys, err := meter.Int64Gauge(
		"keysync_detection_matched_keys",
		metric.WithDescription("Matched key count reported by the last successful detection"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	runsByResult, err := meter.Int64Counter(
		"keysync_detection_runs_total",
		metric.WithDescription("Number of detection runs by result"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &DetectionMetrics{
		runDuration:  runDuration,
		matchedKeys:  matchedKeys,
		runsByResult: runsByResult,
	}, nil
}

// RecordRun records a finished detection run. result is "success" or an error kind.
func (m *DetectionMetrics) RecordRun(ctx context.Context, result string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("result", result))
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	m.runsByResult.Add(ctx, 1, attrs)
}

// RecordMatchedKeys records the matched key count of a successful detection
func (m *DetectionMetrics) RecordMatchedKeys(ctx context.Context, count int) {
	if m == nil || m.matchedKeys == nil {
		return
	}

	m.matchedKeys.Record(ctx, int64(count))
}

// TaskMetrics holds the OpenTelemetry instruments for background task firings
type TaskMetrics struct {
	firings        metric.Int64Counter
	firingDuration metric.Float64Histogram
}

// NewTaskMetrics creates a new TaskMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewTaskMetrics(provider metric.MeterProvider) (*TaskMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(TaskMetricsMeterName)

	firings, err := meter.Int64Counter(
		"keysync_task_firings_total",
		metric.WithDescription("Number of background task firings by outcome"),
		metric.WithUnit("{firing}"),
	)
	if err != nil {
		return nil, err
	}

	firingDuration, err := meter.Float64Histogram(
		"keysync_task_duration_seconds",
		metric.WithDescription("Time from task launch to completion or expiry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &TaskMetrics{
		firings:        firings,
		firingDuration: firingDuration,
	}, nil
}

// RecordFiring records one task firing and its outcome
func (m *TaskMetrics) RecordFiring(ctx context.Context, task, outcome string, duration time.Duration) {
	if m == nil || m.firings == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("outcome", outcome),
	)
	m.firings.Add(ctx, 1, attrs)
	m.firingDuration.Record(ctx, duration.Seconds(), attrs)
}
