package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) []string {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func TestNilProviderReturnsNilMetrics(t *testing.T) {
	t.Parallel()

	syncMetrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, syncMetrics)

	detectionMetrics, err := NewDetectionMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, detectionMetrics)

	taskMetrics, err := NewTaskMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, taskMetrics)

	// nil receivers are no-ops
	ctx := context.Background()
	syncMetrics.RecordSyncDuration(ctx, "DE", time.Second, true)
	syncMetrics.RecordPackagesCommitted(ctx, "DE", "day", 3)
	syncMetrics.RecordStoredDays(ctx, "DE", 14)
	detectionMetrics.RecordRun(ctx, "success", time.Second)
	detectionMetrics.RecordMatchedKeys(ctx, 2)
	taskMetrics.RecordFiring(ctx, "exposure-notification", "succeeded", time.Second)
}

func TestSyncMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	m, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordSyncDuration(ctx, "DE", 2500*time.Millisecond, true)
	m.RecordSyncDuration(ctx, "IT", 500*time.Millisecond, false)
	m.RecordPackagesCommitted(ctx, "DE", "day", 13)
	m.RecordPackagesCommitted(ctx, "DE", "hour", 0)
	m.RecordStoredDays(ctx, "DE", 14)

	names := collectMetricNames(t, reader, SyncMetricsMeterName)
	assert.ElementsMatch(t, []string{
		"keysync_sync_duration_seconds",
		"keysync_packages_committed_total",
		"keysync_stored_days",
	}, names)
}

func TestSyncMetrics_DurationAttributes(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	m, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	m.RecordSyncDuration(context.Background(), "DE", 2*time.Second, true)
	m.RecordSyncDuration(context.Background(), "IT", time.Second, false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var points int
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			if metric.Name != "keysync_sync_duration_seconds" {
				continue
			}
			hist, ok := metric.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				region, ok := dp.Attributes.Value("region")
				require.True(t, ok)
				success, ok := dp.Attributes.Value("success")
				require.True(t, ok)
				switch region.AsString() {
				case "DE":
					assert.True(t, success.AsBool())
					assert.InDelta(t, 2.0, dp.Sum, 0.001)
				case "IT":
					assert.False(t, success.AsBool())
				default:
					t.Fatalf("unexpected region %q", region.AsString())
				}
				points++
			}
		}
	}
	assert.Equal(t, 2, points)
}

func TestDetectionAndTaskMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	detection, err := NewDetectionMetrics(mp)
	require.NoError(t, err)
	tasks, err := NewTaskMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	detection.RecordRun(ctx, "success", 3*time.Second)
	detection.RecordMatchedKeys(ctx, 4)
	tasks.RecordFiring(ctx, "fetch-test-results", "expired", 30*time.Second)

	assert.ElementsMatch(t, []string{
		"keysync_detection_duration_seconds",
		"keysync_detection_matched_keys",
		"keysync_detection_runs_total",
	}, collectMetricNames(t, reader, DetectionMetricsMeterName))
	assert.ElementsMatch(t, []string{
		"keysync_task_firings_total",
		"keysync_task_duration_seconds",
	}, collectMetricNames(t, reader, TaskMetricsMeterName))
}
