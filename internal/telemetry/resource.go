package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource attribute keys describing what this instance keeps in sync
const (
	AttrRegions        = attribute.Key("keysync.regions")
	AttrHourlyFetching = attribute.Key("keysync.hourly_fetching")
	AttrStorageDriver  = attribute.Key("keysync.storage.driver")
	AttrDetectionMode  = attribute.Key("keysync.detection.mode")
)

// Deployment describes the keysync instance on every exported span and metric,
// so dashboards can split by region set or fetching mode.
type Deployment struct {
	Regions        []string
	HourlyFetching bool
	StorageDriver  string
	DetectionMode  string
}

func (d Deployment) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrHourlyFetching.Bool(d.HourlyFetching)}
	if len(d.Regions) > 0 {
		attrs = append(attrs, AttrRegions.StringSlice(d.Regions))
	}
	if d.StorageDriver != "" {
		attrs = append(attrs, AttrStorageDriver.String(d.StorageDriver))
	}
	if d.DetectionMode != "" {
		attrs = append(attrs, AttrDetectionMode.String(d.DetectionMode))
	}
	return attrs
}

// newResource builds the resource shared by the tracer and meter providers.
// resource.New is used instead of resource.Default to avoid schema URL conflicts.
func newResource(ctx context.Context, cfg *Config, d Deployment) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
	}, d.attributes()...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
