package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func ratio(v float64) *float64 { return &v }

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 0.0001)
	assert.InDelta(t, 0.0, (&TracingConfig{Sampling: ratio(0)}).GetSampling(), 0.0001)
	assert.Equal(t, DefaultMetricsInterval, (*MetricsConfig)(nil).GetInterval())
	assert.Equal(t, 30*time.Second, (&MetricsConfig{Interval: "30s"}).GetInterval())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores bad sampling", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: ratio(5)}}},
		{name: "valid sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: ratio(0.5)}}},
		{name: "sampling above one", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: ratio(1.5)}}, wantErr: "sampling"},
		{name: "negative sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: ratio(-0.1)}}, wantErr: "sampling"},
		{name: "prometheus metrics", config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Prometheus: true}}},
		{name: "prometheus without metrics", config: &Config{Enabled: true, Metrics: &MetricsConfig{Prometheus: true}}, wantErr: "prometheus requires"},
		{name: "bad metrics interval", config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Interval: "soon"}}, wantErr: "interval"},
		{name: "endpoint with scheme", config: &Config{Enabled: true, Endpoint: "http://collector:4318"}, wantErr: "without a scheme"},
		{name: "endpoint without port", config: &Config{Enabled: true, Endpoint: "collector"}, wantErr: "host:port"},
		{name: "endpoint host and port", config: &Config{Enabled: true, Endpoint: "collector:4318"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewResource_DeploymentAttributes(t *testing.T) {
	t.Parallel()

	res, err := newResource(context.Background(), &Config{ServiceVersion: "1.4.0"}, Deployment{
		Regions:        []string{"DE", "NL"},
		HourlyFetching: true,
		StorageDriver:  "sqlite",
		DetectionMode:  "automatic",
	})
	require.NoError(t, err)

	set := res.Set()
	regions, ok := set.Value(AttrRegions)
	require.True(t, ok)
	assert.Equal(t, []string{"DE", "NL"}, regions.AsStringSlice())
	hourly, ok := set.Value(AttrHourlyFetching)
	require.True(t, ok)
	assert.True(t, hourly.AsBool())
	driver, _ := set.Value(AttrStorageDriver)
	assert.Equal(t, "sqlite", driver.AsString())
	mode, _ := set.Value(AttrDetectionMode)
	assert.Equal(t, "automatic", mode.AsString())
	version, _ := set.Value(semconv.ServiceVersionKey)
	assert.Equal(t, "1.4.0", version.AsString())
	name, _ := set.Value(semconv.ServiceNameKey)
	assert.Equal(t, DefaultServiceName, name.AsString())
}

func TestNewResource_EmptyDeployment(t *testing.T) {
	t.Parallel()

	res, err := newResource(context.Background(), &Config{}, Deployment{})
	require.NoError(t, err)
	_, ok := res.Set().Value(AttrRegions)
	assert.False(t, ok)
	_, ok = res.Set().Value(AttrStorageDriver)
	assert.False(t, ok)
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background())
	require.NoError(t, err)

	_, ok := tel.MeterProvider().(noop.MeterProvider)
	assert.True(t, ok, "expected no-op meter provider")
	_, ok = tel.TracerProvider().(tracenoop.TracerProvider)
	assert.True(t, ok, "expected no-op tracer provider")
	assert.Nil(t, tel.MetricsHandler())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_PrometheusHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tel, err := New(ctx, WithTelemetryConfig(&Config{
		Enabled:  true,
		Insecure: true,
		Metrics:  &MetricsConfig{Enabled: true, Prometheus: true},
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	_, ok := tel.MeterProvider().(*sdkmetric.MeterProvider)
	require.True(t, ok, "expected SDK meter provider")

	m, err := NewSyncMetrics(tel.MeterProvider())
	require.NoError(t, err)
	m.RecordStoredDays(ctx, "DE", 14)

	handler := tel.MetricsHandler()
	require.NotNil(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "keysync_stored_days")
}

func TestNew_MetricsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tel, err := New(ctx,
		WithTelemetryConfig(&Config{
			Enabled:  true,
			Insecure: true,
			Tracing:  &TracingConfig{Enabled: false},
			Metrics:  &MetricsConfig{Enabled: true, Prometheus: true},
		}),
		WithDeployment(Deployment{Regions: []string{"DE"}}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	_, ok := tel.TracerProvider().(tracenoop.TracerProvider)
	assert.True(t, ok, "tracing stays a no-op when only metrics are enabled")

	tm, err := NewTaskMetrics(tel.MeterProvider())
	require.NoError(t, err)
	tm.RecordFiring(ctx, "exposure-notification", "succeeded", 0)

	families, err := tel.promRegistry.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "keysync_task_firings_total" {
			found = true
		}
	}
	assert.True(t, found, "expected task firings to be exported to Prometheus")
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled:  true,
		Endpoint: "https://collector:4318",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}
