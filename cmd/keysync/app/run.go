package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	keysyncapp "github.com/stacklok/keysync/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync every configured region once and exit",
	Long: `Bring the local archive of every configured region up to date with the key server,
record the outcome in the status files and exit. Fails if any region fails.`,
	RunE: runSync,
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Sync every region and run exposure detection once",
	Long: `Sync every configured region, then run exposure detection over the stored packages.
This is a user triggered run: in manual detection mode it is refused while the
policy says detection is not possible yet. The resulting detection status is
printed as JSON on stdout.`,
	RunE: runDetect,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention window to every region without contacting the key server",
	RunE:  runPrune,
}

// withComponents builds the components, runs fn under a signal aware context and releases everything
func withComponents(fn func(ctx context.Context, comps *keysyncapp.AppComponents) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := keysyncapp.BuildComponents(ctx, keysyncapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build components: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = comps.Close(closeCtx)
	}()

	if err := comps.StateService.Initialize(ctx, cfg.Regions); err != nil {
		return fmt.Errorf("failed to initialize status: %w", err)
	}
	return fn(ctx, comps)
}

func runSync(_ *cobra.Command, _ []string) error {
	return withComponents(func(ctx context.Context, comps *keysyncapp.AppComponents) error {
		if err := comps.Coordinator.RunSync(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		slog.Info("Sync complete")
		return nil
	})
}

func runDetect(cmd *cobra.Command, _ []string) error {
	return withComponents(func(ctx context.Context, comps *keysyncapp.AppComponents) error {
		detectionStatus, err := comps.Coordinator.RunDetection(ctx, true)
		if err != nil && detectionStatus == nil {
			return fmt.Errorf("detection failed: %w", err)
		}

		output, marshalErr := json.MarshalIndent(detectionStatus, "", "  ")
		if marshalErr != nil {
			return errors.Join(err, fmt.Errorf("failed to format detection status: %w", marshalErr))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(output))

		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}
		return nil
	})
}

func runPrune(_ *cobra.Command, _ []string) error {
	return withComponents(func(ctx context.Context, comps *keysyncapp.AppComponents) error {
		regions, err := comps.StateService.ListSyncStatuses(ctx)
		if err != nil {
			return err
		}

		var errs []error
		now := time.Now()
		for region := range regions {
			if pruneErr := comps.SyncManager.Prune(ctx, region, now); pruneErr != nil {
				slog.Error("Prune failed", "region", region, "error", pruneErr)
				errs = append(errs, pruneErr)
				continue
			}
			slog.Info("Pruned region", "region", region)
		}
		return errors.Join(errs...)
	})
}
