// Package app provides application lifecycle management for keysync.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/keysync/internal/config"
)

// KeysyncApp encapsulates all components needed to run the background sync and its HTTP server
type KeysyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewKeysyncApp builds the components and the HTTP server
func NewKeysyncApp(ctx context.Context, opts ...KeysyncAppOptions) (*KeysyncApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	comps, err := buildComponents(appCtx, b)
	if err != nil {
		cancel()
		return nil, err
	}

	httpServer, err := buildHTTPServer(b, comps)
	if err != nil {
		_ = comps.Close(context.Background())
		cancel()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &KeysyncApp{
		config:     b.config,
		components: comps,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// Start runs the coordinator in the background and serves HTTP.
// It blocks until the HTTP server stops or fails.
func (app *KeysyncApp) Start() error {
	go func() {
		if err := app.components.Coordinator.Start(app.ctx); err != nil {
			slog.Error("Coordinator failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// The coordinator goes first so no firing outlives the store.
func (app *KeysyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.Coordinator.Stop(); err != nil {
		slog.Error("Failed to stop coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	if err := app.components.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *KeysyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *KeysyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the assembled components
func (app *KeysyncApp) Components() *AppComponents {
	return app.components
}
