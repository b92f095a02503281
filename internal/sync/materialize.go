package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/keysync/internal/detector"
	"github.com/stacklok/keysync/internal/otel"
	"github.com/stacklok/keysync/internal/packages"
)

// Materialize writes the detection package set into <outputDir>/<uuid>.
// In hourly mode the set is today's capped hour packages, otherwise every stored day package.
// Any write failure removes the directory.
func (s *defaultSyncManager) Materialize(
	ctx context.Context, regions []string, now time.Time,
) (*Materialized, *Error) {
	today := packages.Today(now)
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.Materialize",
		otel.AttrDay.String(string(today)))
	defer span.End()

	pkgs, err := s.collect(ctx, regions, today)
	if err != nil {
		otel.RecordError(span, err)
		return nil, newError(PhaseMaterialize, KindStorage, err, "failed to read packages for detection")
	}

	dir := filepath.Join(s.outputDir, uuid.NewString())
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		otel.RecordError(span, err)
		return nil, newError(PhaseMaterialize, KindMaterialization, err, "failed to create directory %s", dir)
	}

	files := make([]detector.PackageFile, len(pkgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, pkg := range pkgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := detector.PackageFile{
				BinPath: filepath.Join(dir, fmt.Sprintf("%d.bin", i)),
				SigPath: filepath.Join(dir, fmt.Sprintf("%d.sig", i)),
			}
			if err := afero.WriteFile(s.fs, file.BinPath, pkg.Bin, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", file.BinPath, err)
			}
			if err := afero.WriteFile(s.fs, file.SigPath, pkg.Signature, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", file.SigPath, err)
			}
			files[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		otel.RecordError(span, err)
		if rmErr := s.fs.RemoveAll(dir); rmErr != nil {
			slog.Warn("Failed to remove partial package directory", "dir", dir, "error", rmErr)
		}
		return nil, newError(PhaseMaterialize, KindMaterialization, err, "failed to write packages to %s", dir)
	}

	span.SetAttributes(otel.AttrFileCount.Int(len(files)))
	slog.Info("Materialized packages for detection", "dir", dir, "files", len(files), "hourly", s.hourly)
	return &Materialized{Dir: dir, Files: files}, nil
}

// collect reads the packages to materialize, regions in the given order
func (s *defaultSyncManager) collect(
	ctx context.Context, regions []string, today packages.DayKey,
) ([]*packages.Package, error) {
	var out []*packages.Package
	for _, region := range regions {
		if s.hourly {
			hours, err := s.store.ListAll(ctx, region, today, true)
			if err != nil {
				return nil, fmt.Errorf("list hour packages of %s: %w", region, err)
			}
			out = append(out, hours...)
			continue
		}

		days, err := s.store.ListDays(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("list days of %s: %w", region, err)
		}
		for _, day := range days {
			pkg, err := s.store.GetDay(ctx, region, day)
			if err != nil {
				return nil, fmt.Errorf("read day %s of %s: %w", day, region, err)
			}
			if pkg != nil {
				out = append(out, pkg)
			}
		}
	}
	return out, nil
}

// Cleanup removes the materialized directory
func (s *defaultSyncManager) Cleanup(m *Materialized) error {
	if m == nil || m.Dir == "" {
		return nil
	}
	if err := s.fs.RemoveAll(m.Dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", m.Dir, err)
	}
	return nil
}
