package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	keysyncapp "github.com/stacklok/keysync/internal/app"
)

const defaultGracefulTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run background sync and detection with the status API",
	Long: `Run the background tasks that keep every configured region in sync and run
exposure detection when it is due, and serve the status API.

The configuration file (--config) specifies:
- the regions to sync and the key server URL
- the package store (sqlite or postgres)
- the detection policy and task timing`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	serveCmd.Flags().Bool("allow-downgrade", false, "Open a data directory written by a newer release")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := []keysyncapp.KeysyncAppOptions{keysyncapp.WithConfig(cfg)}

	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}
	if address != "" {
		opts = append(opts, keysyncapp.WithAddress(address))
	}

	allowDowngrade, err := cmd.Flags().GetBool("allow-downgrade")
	if err != nil {
		return fmt.Errorf("failed to get allow-downgrade flag: %w", err)
	}
	opts = append(opts, keysyncapp.WithAllowDowngrade(allowDowngrade))

	keysyncApp, err := keysyncapp.NewKeysyncApp(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- keysyncApp.Start()
	}()

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var startErr error
	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	case startErr = <-errChan:
		slog.Error("Server stopped unexpectedly", "error", startErr)
	}

	if err := keysyncApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Shutdown failed", "error", err)
		if startErr == nil {
			startErr = err
		}
	}
	return startErr
}
