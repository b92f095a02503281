// Package detector adapts the external exposure detection engine.
//
// The engine is opaque: it receives the detection configuration and the materialized
// package files and returns a summary or an error.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// PackageFile is one materialized package on disk
type PackageFile struct {
	BinPath string `json:"binPath"`
	SigPath string `json:"sigPath"`
}

// Summary is the result of a detection run
type Summary struct {
	MatchedKeyCount       int   `json:"matchedKeyCount"`
	DaysSinceLastExposure int   `json:"daysSinceLastExposure"`
	MaximumRiskScore      int   `json:"maximumRiskScore"`
	AttenuationDurations  []int `json:"attenuationDurations,omitempty"`
	FileCount             int   `json:"fileCount"`
}

// Detector runs exposure detection over a set of package files
//
//go:generate mockgen -destination=mocks/mock_detector.go -package=mocks github.com/stacklok/keysync/internal/detector Detector
type Detector interface {
	Detect(ctx context.Context, config []byte, files []PackageFile) (*Summary, error)
}

// CommandDetector runs an external executable.
// The configuration is written to its stdin and each package contributes its
// bin and sig paths as arguments. A JSON Summary is expected on stdout.
type CommandDetector struct {
	Path string
	Args []string
}

var _ Detector = (*CommandDetector)(nil)

// NewCommandDetector creates a detector for the given command line
func NewCommandDetector(command []string) (*CommandDetector, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("detector command is required")
	}
	return &CommandDetector{Path: command[0], Args: command[1:]}, nil
}

// Detect runs the command and decodes its summary
func (d *CommandDetector) Detect(ctx context.Context, config []byte, files []PackageFile) (*Summary, error) {
	args := append([]string{}, d.Args...)
	for _, f := range files {
		args = append(args, f.BinPath, f.SigPath)
	}

	// #nosec G204 -- the command comes from trusted configuration
	cmd := exec.CommandContext(ctx, d.Path, args...)
	cmd.Stdin = bytes.NewReader(config)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.DebugContext(ctx, "Running detector", "command", d.Path, "files", len(files))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("detector failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var summary Summary
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode detector summary: %w", err)
	}
	if summary.FileCount == 0 {
		summary.FileCount = len(files)
	}
	return &summary, nil
}

// NoopDetector reports an empty summary. It is used when no engine is configured.
type NoopDetector struct{}

var _ Detector = NoopDetector{}

// Detect returns a summary without matches
func (NoopDetector) Detect(ctx context.Context, _ []byte, files []PackageFile) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Summary{FileCount: len(files)}, nil
}
