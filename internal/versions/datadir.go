package versions

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// MarkerFileName records the version that last opened a data directory
const MarkerFileName = "VERSION"

// ErrDataDirTooNew is returned when the data directory was written by a newer release
var ErrDataDirTooNew = errors.New("data directory was written by a newer keysync version")

// CheckDataDir compares current with the version recorded in dir and records current.
// A directory last opened by a newer release is rejected unless allowDowngrade is set.
func CheckDataDir(dir, current string, allowDowngrade bool) error {
	path := filepath.Join(dir, MarkerFileName)

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("No version marker in data directory", "dir", dir)
	case err != nil:
		return fmt.Errorf("failed to read version marker: %w", err)
	default:
		recorded := strings.TrimSpace(string(data))
		if RecordedIsNewer(recorded, current) {
			if !allowDowngrade {
				return fmt.Errorf("%w: %s > %s", ErrDataDirTooNew, recorded, current)
			}
			slog.Warn("Opening data directory written by a newer version",
				"recorded", recorded,
				"current", current)
		}
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(current+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write version marker: %w", err)
	}
	return nil
}
