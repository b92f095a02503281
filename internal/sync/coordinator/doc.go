// Package coordinator runs the sync pipeline and exposure detection as background tasks.
//
// It sits on top of sync.Manager and tasks.Scheduler and handles:
//
//   - Registration of the periodic tasks at startup
//   - Region sync status persistence around every sync attempt
//   - Detection policy checks and the detection status
//   - Graceful shutdown
//
// # Tasks
//
// Two tasks are registered with the scheduler:
//
//   - exposure-notification: syncs every region, materializes the packages,
//     downloads the detection configuration and runs the detector. In automatic
//     mode the run is skipped while the last detection is still fresh. In manual
//     mode the task only syncs, detection waits for RunDetection(ctx, true).
//   - fetch-test-results: a sync-only pass that keeps the archive warm.
//
// # Usage Example
//
//	coord := coordinator.New(syncManager, stateService, scheduler, cfg)
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	go coord.Start(ctx)
//
//	// ... run server ...
//
//	coord.Stop()
//
// # Concurrency
//
// Sync and detection passes never overlap. A pass started while another one is
// running fails with ErrAlreadyRunning, which the scheduler records as a failed
// firing. A firing that outlives its deadline keeps running; its committed store
// writes and final status update still happen.
//
// # Status Persistence
//
// Before each region sync the status moves to Syncing. A deferred update always
// writes the final Complete or Failed status, so a crash leaves Syncing behind,
// which the state service resets to Failed on the next start.
package coordinator
