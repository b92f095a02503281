// Package status provides sync and detection status tracking and persistence.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the per-region status file
	StatusFileName = "status.json"

	// DetectionFileName is the name of the detection status file at the base path
	DetectionFileName = "detection.json"
)

// StatusPersistence defines the interface for status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status of a region
	SaveStatus(ctx context.Context, region string, status *SyncStatus) error

	// LoadStatus loads the sync status of a region.
	// Returns an empty SyncStatus if nothing was saved yet.
	LoadStatus(ctx context.Context, region string) (*SyncStatus, error)

	// LoadAllStatus loads the sync status of every region found on disk
	LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error)

	// SaveDetectionStatus saves the detection status
	SaveDetectionStatus(ctx context.Context, status *DetectionStatus) error

	// LoadDetectionStatus loads the detection status.
	// Returns an empty DetectionStatus if nothing was saved yet.
	LoadDetectionStatus(ctx context.Context) (*DetectionStatus, error)
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence.
// Region statuses live in <basePath>/<region>/status.json, detection in <basePath>/detection.json.
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

// SaveStatus saves the sync status to a JSON file in a region directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, region string, status *SyncStatus) error {
	if err := validateRegionDir(region); err != nil {
		return err
	}
	if err := writeJSONAtomic(filepath.Join(f.basePath, region, StatusFileName), status); err != nil {
		return fmt.Errorf("failed to save status for region '%s': %w", region, err)
	}
	return nil
}

// LoadStatus loads the sync status of a region
func (f *fileStatusPersistence) LoadStatus(_ context.Context, region string) (*SyncStatus, error) {
	if err := validateRegionDir(region); err != nil {
		return nil, err
	}
	var status SyncStatus
	if err := readJSON(filepath.Join(f.basePath, region, StatusFileName), &status); err != nil {
		return nil, fmt.Errorf("failed to load status for region '%s': %w", region, err)
	}
	return &status, nil
}

// LoadAllStatus loads sync status for all regions
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[string]*SyncStatus, error) {
	result := make(map[string]*SyncStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		region := entry.Name()
		status, err := f.LoadStatus(ctx, region)
		if err != nil {
			// partial results are more useful than none
			slog.Warn("Skipping unreadable region status", "region", region, "error", err)
			continue
		}

		result[region] = status
	}

	return result, nil
}

// SaveDetectionStatus saves the detection status
func (f *fileStatusPersistence) SaveDetectionStatus(_ context.Context, status *DetectionStatus) error {
	if err := writeJSONAtomic(filepath.Join(f.basePath, DetectionFileName), status); err != nil {
		return fmt.Errorf("failed to save detection status: %w", err)
	}
	return nil
}

// LoadDetectionStatus loads the detection status
func (f *fileStatusPersistence) LoadDetectionStatus(_ context.Context) (*DetectionStatus, error) {
	var status DetectionStatus
	if err := readJSON(filepath.Join(f.basePath, DetectionFileName), &status); err != nil {
		return nil, fmt.Errorf("failed to load detection status: %w", err)
	}
	return &status, nil
}

func validateRegionDir(region string) error {
	if region == "" || region == "." || region == ".." || filepath.Base(region) != region {
		return fmt.Errorf("invalid region name %q", region)
	}
	return nil
}

// writeJSONAtomic writes v to a temporary file and renames it over path
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// readJSON decodes path into v, leaving v untouched when the file does not exist
func readJSON(path string, v any) error {
	// #nosec G304 -- path is built from the configured base path and a validated name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
