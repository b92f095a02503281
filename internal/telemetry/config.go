// Package telemetry provides OpenTelemetry instrumentation for keysync.
// Traces go to an OTLP collector. Metrics go to OTLP and optionally to a Prometheus scrape endpoint.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	// DefaultServiceName is the service name reported when none is configured
	DefaultServiceName = "keysync"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling samples every root span. A sync run produces only a handful of spans.
	DefaultSampling = 1.0

	// DefaultMetricsInterval is how often metrics are pushed to the collector
	DefaultMetricsInterval = 60 * time.Second
)

// Config is the telemetry section of the keysync configuration
type Config struct {
	// Enabled turns on the providers below. When false everything is a no-op.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this keysync instance
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector as host:port. The /v1/traces and /v1/metrics paths are implied.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends telemetry over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root spans kept, DefaultSampling when unset.
	// Spans whose parent was sampled are always kept.
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus additionally exposes metrics on the HTTP server's /metrics route
	Prometheus bool `yaml:"prometheus,omitempty"`

	// Interval is the OTLP push interval (e.g., "30s"), DefaultMetricsInterval when unset
	Interval string `yaml:"interval,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Config) tracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

func (c *Config) metricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// GetSampling returns the root span sampling ratio
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// GetInterval returns the OTLP push interval
func (c *MetricsConfig) GetInterval() time.Duration {
	if c == nil || c.Interval == "" {
		return DefaultMetricsInterval
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return DefaultMetricsInterval
	}
	return d
}

// Validate checks the telemetry configuration. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Endpoint != "" {
		if strings.Contains(c.Endpoint, "://") {
			errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
		} else if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("endpoint must be host:port: %w", err))
		}
	}

	if c.Tracing != nil && c.Tracing.Sampling != nil {
		if s := *c.Tracing.Sampling; s < 0 || s > 1.0 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %f", s))
		}
	}

	if c.Metrics != nil {
		if c.Metrics.Prometheus && !c.Metrics.Enabled {
			errs = append(errs, errors.New("metrics: prometheus requires metrics.enabled"))
		}
		if c.Metrics.Interval != "" {
			if d, err := time.ParseDuration(c.Metrics.Interval); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("metrics: interval must be a positive duration, got %q", c.Metrics.Interval))
			}
		}
	}

	return errors.Join(errs...)
}
