// Package sync keeps the local package archive in step with the remote service
// and prepares package sets for exposure detection.
//
// # Pipeline
//
// Manager.Sync runs three ordered phases for one region:
//
//   - Discover: list the days available remotely and, in hourly mode, the hours
//     available for today. Both queries run concurrently and every failure is
//     reported through errors.Join.
//   - Prune and diff: drop days outside the retention window, then compute the
//     keys missing locally with Delta.
//   - Fetch and commit: fetch all missing keys in one batch and write every day
//     package before every hour package.
//
// Manager.Materialize writes the packages used for detection into a fresh
// directory, one <n>.bin and <n>.sig pair per package. DownloadConfiguration and
// Detect pass through to the remote service and the detector.
//
// Nothing in this package retries. Failures are returned as *Error carrying a Kind
// and the Phase that failed; scheduling decides when to try again.
//
// # Coordinator Package
//
// The sync/coordinator subpackage registers the background tasks that drive
// the pipeline and persists their outcome through sync/state.
package sync
