package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"github.com/stacklok/keysync/internal/api"
	"github.com/stacklok/keysync/internal/app/storage"
	"github.com/stacklok/keysync/internal/config"
	"github.com/stacklok/keysync/internal/detector"
	"github.com/stacklok/keysync/internal/httpclient"
	"github.com/stacklok/keysync/internal/packages"
	"github.com/stacklok/keysync/internal/remote"
	"github.com/stacklok/keysync/internal/status"
	pkgsync "github.com/stacklok/keysync/internal/sync"
	"github.com/stacklok/keysync/internal/sync/coordinator"
	"github.com/stacklok/keysync/internal/sync/state"
	"github.com/stacklok/keysync/internal/tasks"
	"github.com/stacklok/keysync/internal/telemetry"
	"github.com/stacklok/keysync/internal/versions"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	tracerName = "github.com/stacklok/keysync"
)

// KeysyncAppOptions is a function that configures the app builder
type KeysyncAppOptions func(*keysyncAppConfig) error

// keysyncAppConfig holds what the builder needs to assemble the components.
// Component overrides exist for tests.
type keysyncAppConfig struct {
	config *config.Config

	store        packages.Store
	remoteClient remote.Client
	detector     detector.Detector
	syncManager  pkgsync.Manager
	telemetry    *telemetry.Telemetry

	allowDowngrade bool

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...KeysyncAppOptions) (*keysyncAppConfig, error) {
	cfg := &keysyncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.Address
	}

	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the configured HTTP server address
func WithAddress(addr string) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host, port := parts[0], parts[1]
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithAllowDowngrade opens a data directory written by a newer release
func WithAllowDowngrade(allow bool) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.allowDowngrade = allow
		return nil
	}
}

// WithStore injects the package store (for testing)
func WithStore(s packages.Store) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithRemoteClient injects the key server client (for testing)
func WithRemoteClient(c remote.Client) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.remoteClient = c
		return nil
	}
}

// WithDetector injects the detection engine (for testing)
func WithDetector(d detector.Detector) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.detector = d
		return nil
	}
}

// WithSyncManager injects the sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry uses already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) KeysyncAppOptions {
	return func(cfg *keysyncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// BuildComponents assembles everything except the HTTP server.
// It takes the data directory lock, so at most one process works on a data directory.
// On error every resource acquired so far is released.
func BuildComponents(ctx context.Context, opts ...KeysyncAppOptions) (*AppComponents, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	return buildComponents(ctx, b)
}

func buildComponents(ctx context.Context, b *keysyncAppConfig) (_ *AppComponents, err error) {
	cfg := b.config
	comps := &AppComponents{}
	defer func() {
		if err != nil {
			_ = comps.Close(context.Background())
		}
	}()

	if err := os.MkdirAll(cfg.Sync.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	comps.lock = flock.New(cfg.GetLockPath())
	locked, err := comps.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}
	if !locked {
		comps.lock = nil
		return nil, fmt.Errorf("data directory %s is in use by another keysync process", cfg.Sync.DataDir)
	}

	if err := versions.CheckDataDir(cfg.Sync.DataDir, versions.GetVersionInfo().Version, b.allowDowngrade); err != nil {
		return nil, err
	}

	if b.telemetry == nil {
		if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
			cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
		}
		b.telemetry, err = telemetry.New(ctx,
			telemetry.WithTelemetryConfig(cfg.Telemetry),
			telemetry.WithDeployment(telemetry.Deployment{
				Regions:        cfg.Regions,
				HourlyFetching: cfg.Sync.HourlyFetching,
				StorageDriver:  cfg.Storage.Driver,
				DetectionMode:  string(cfg.GetDetectionPolicy().Mode),
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		comps.ownsTelemetry = true
	}
	comps.Telemetry = b.telemetry

	if b.store == nil {
		b.store, err = storage.NewStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create package store: %w", err)
		}
		comps.ownsStore = true
	}
	comps.Store = b.store

	if err := buildSyncComponents(ctx, b, comps); err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	return comps, nil
}

// buildSyncComponents builds the sync manager, state service, scheduler and coordinator
func buildSyncComponents(ctx context.Context, b *keysyncAppConfig, comps *AppComponents) error {
	slog.Info("Initializing sync components")
	cfg := b.config
	meterProvider := b.telemetry.MeterProvider()
	tracer := b.telemetry.Tracer(tracerName)

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}
	detectionMetrics, err := telemetry.NewDetectionMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create detection metrics: %w", err)
	}
	taskMetrics, err := telemetry.NewTaskMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create task metrics: %w", err)
	}

	if b.syncManager == nil {
		if b.remoteClient == nil {
			b.remoteClient, err = buildRemoteClient(cfg)
			if err != nil {
				return err
			}
		}
		if b.detector == nil {
			b.detector, err = buildDetector(cfg)
			if err != nil {
				return err
			}
		}

		b.syncManager = pkgsync.NewManager(b.store, b.remoteClient, b.detector,
			pkgsync.WithHourlyFetching(cfg.Sync.HourlyFetching),
			pkgsync.WithOutputDir(filepath.Join(cfg.Sync.DataDir, "detection")),
			pkgsync.WithMaterializeConcurrency(cfg.Sync.MaterializeConcurrency),
			pkgsync.WithTracer(tracer),
			pkgsync.WithSyncMetrics(syncMetrics),
		)
	}
	comps.SyncManager = b.syncManager

	comps.StateService = state.NewFileStateService(status.NewFileStatusPersistence(cfg.GetStatusDir()))

	hostCtx, cancel := context.WithCancel(ctx)
	comps.cancel = cancel
	host := tasks.NewMemoryHost(hostCtx,
		tasks.WithRunBudget(cfg.GetTaskDeadline()),
		tasks.WithMinDelay(cfg.GetTaskMinDelay()),
	)
	comps.Scheduler = tasks.NewScheduler(host,
		tasks.WithBaseContext(hostCtx),
		tasks.WithTaskMetrics(taskMetrics),
	)

	comps.Coordinator = coordinator.New(comps.SyncManager, comps.StateService, comps.Scheduler, cfg,
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithDetectionMetrics(detectionMetrics),
		coordinator.WithTracer(tracer),
	)

	slog.Info("Sync components initialized successfully")
	return nil
}

func buildRemoteClient(cfg *config.Config) (remote.Client, error) {
	httpOpts := []httpclient.Option{
		httpclient.WithTimeout(cfg.GetRemoteTimeout()),
		httpclient.WithUserAgent(versions.UserAgent()),
	}
	if cfg.Remote.MaxResponseSize > 0 {
		httpOpts = append(httpOpts, httpclient.WithMaxResponseSize(cfg.Remote.MaxResponseSize))
	}

	client, err := remote.NewHTTPClient(cfg.Remote.BaseURL,
		remote.WithHTTPClient(httpclient.NewDefaultClient(httpOpts...)),
		remote.WithConfigurationRegion(cfg.Remote.ConfigurationRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}
	return client, nil
}

func buildDetector(cfg *config.Config) (detector.Detector, error) {
	if len(cfg.Detection.Command) == 0 {
		slog.Warn("No detection command configured, detection reports empty summaries")
		return detector.NoopDetector{}, nil
	}
	det, err := detector.NewCommandDetector(cfg.Detection.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}
	return det, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *keysyncAppConfig, comps *AppComponents) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			telemetry.TracingMiddleware(comps.Telemetry.TracerProvider()),
			api.LoggingMiddleware,
		}

		// Prepended so rejected and timed out requests are counted too
		metricsMiddleware, err := telemetry.MetricsMiddleware(comps.Telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
		}
	}

	router := api.NewServer(comps.Coordinator, comps.StateService, comps.Scheduler,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(comps.Telemetry.MetricsHandler()),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
