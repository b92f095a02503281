package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/keysync/internal/detector"
	"github.com/stacklok/keysync/internal/otel"
	"github.com/stacklok/keysync/internal/packages"
	"github.com/stacklok/keysync/internal/remote"
	"github.com/stacklok/keysync/internal/telemetry"
)

// DefaultMaterializeConcurrency is the number of package files written in parallel
const DefaultMaterializeConcurrency = 4

// Result describes a successful sync of one region
type Result struct {
	Region         string
	Today          packages.DayKey
	Missing        packages.DaysAndHours
	DaysCommitted  int
	HoursCommitted int
	StoredDays     int
}

// Materialized is a directory of package files ready for detection
type Materialized struct {
	Dir   string
	Files []detector.PackageFile
}

// Manager runs the sync pipeline
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/keysync/internal/sync Manager
type Manager interface {
	// Sync brings the local archive of region up to date with the remote service
	Sync(ctx context.Context, region string, now time.Time) (*Result, *Error)

	// Prune applies the retention window to region without contacting the remote service
	Prune(ctx context.Context, region string, now time.Time) *Error

	// Materialize writes the detection package set of every region into a fresh directory
	Materialize(ctx context.Context, regions []string, now time.Time) (*Materialized, *Error)

	// DownloadConfiguration fetches the detection configuration
	DownloadConfiguration(ctx context.Context) ([]byte, *Error)

	// Detect runs the detector over materialized files
	Detect(ctx context.Context, config []byte, m *Materialized) (*detector.Summary, *Error)

	// Cleanup removes a materialized directory
	Cleanup(m *Materialized) error
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	store    packages.Store
	remote   remote.Client
	detector detector.Detector

	hourly      bool
	fs          afero.Fs
	outputDir   string
	concurrency int

	tracer  trace.Tracer
	metrics *telemetry.SyncMetrics
}

// Option configures the sync manager
type Option func(*defaultSyncManager)

// WithHourlyFetching enables hour packages for today
func WithHourlyFetching(enabled bool) Option {
	return func(s *defaultSyncManager) {
		s.hourly = enabled
	}
}

// WithFs sets the filesystem used by Materialize
func WithFs(fs afero.Fs) Option {
	return func(s *defaultSyncManager) {
		s.fs = fs
	}
}

// WithOutputDir sets the parent directory of materialized package sets
func WithOutputDir(dir string) Option {
	return func(s *defaultSyncManager) {
		s.outputDir = dir
	}
}

// WithMaterializeConcurrency sets how many package files are written in parallel
func WithMaterializeConcurrency(n int) Option {
	return func(s *defaultSyncManager) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTracer sets the tracer for pipeline spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *defaultSyncManager) {
		s.tracer = tracer
	}
}

// WithSyncMetrics sets the metrics recorder
func WithSyncMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *defaultSyncManager) {
		s.metrics = m
	}
}

// NewManager creates a Manager
func NewManager(store packages.Store, remoteClient remote.Client, det detector.Detector, opts ...Option) Manager {
	s := &defaultSyncManager{
		store:       store,
		remote:      remoteClient,
		detector:    det,
		fs:          afero.NewOsFs(),
		outputDir:   filepath.Join(os.TempDir(), "keysync"),
		concurrency: DefaultMaterializeConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs discover, prune and diff, then fetch and commit for one region
func (s *defaultSyncManager) Sync(ctx context.Context, region string, now time.Time) (*Result, *Error) {
	today := packages.Today(now)
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.Sync",
		otel.AttrRegion.String(region), otel.AttrDay.String(string(today)))
	defer span.End()

	available, syncErr := s.discover(ctx, region, today)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
		return nil, syncErr
	}

	missing, localDays, syncErr := s.pruneAndDiff(ctx, region, today, available)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
		return nil, syncErr
	}
	span.SetAttributes(
		otel.AttrMissingDays.Int(len(missing.Days)),
		otel.AttrMissingHours.Int(len(missing.Hours)),
	)

	result := &Result{
		Region:     region,
		Today:      today,
		Missing:    missing,
		StoredDays: localDays,
	}

	if missing.IsEmpty() {
		slog.Info("Local archive up to date", "region", region, "today", today)
		s.metrics.RecordStoredDays(ctx, region, result.StoredDays)
		return result, nil
	}

	if syncErr := s.fetchAndCommit(ctx, region, today, missing); syncErr != nil {
		otel.RecordError(span, syncErr)
		return nil, syncErr
	}

	result.DaysCommitted = len(missing.Days)
	result.HoursCommitted = len(missing.Hours)
	result.StoredDays += result.DaysCommitted
	s.metrics.RecordPackagesCommitted(ctx, region, "day", result.DaysCommitted)
	s.metrics.RecordPackagesCommitted(ctx, region, "hour", result.HoursCommitted)
	s.metrics.RecordStoredDays(ctx, region, result.StoredDays)

	slog.Info("Sync committed packages",
		"region", region,
		"days", result.DaysCommitted,
		"hours", result.HoursCommitted,
		"stored_days", result.StoredDays)

	return result, nil
}

// discover lists what the remote service offers. Every query failure is collected.
func (s *defaultSyncManager) discover(
	ctx context.Context, region string, today packages.DayKey,
) (packages.DaysAndHours, *Error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.discover")
	defer span.End()

	var (
		wg        gosync.WaitGroup
		mu        gosync.Mutex
		errs      []error
		available packages.DaysAndHours
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		days, err := s.remote.ListAvailableDays(ctx, region)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("list available days: %w", err))
			return
		}
		available.Days = days
	}()

	if s.hourly {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hours, err := s.remote.ListAvailableHours(ctx, region, today)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("list available hours of %s: %w", today, err))
				return
			}
			available.Hours = hours
		}()
	}

	wg.Wait()

	if len(errs) > 0 {
		err := errors.Join(errs...)
		otel.RecordError(span, err)
		slog.Error("Unable to determine available data", "region", region, "error", err)
		return packages.DaysAndHours{}, newError(PhaseDiscover, KindNetwork, err,
			"failed to determine available data for region %s", region)
	}

	slog.Debug("Discovered remote packages", "region", region,
		"days", len(available.Days), "hours", len(available.Hours))
	return available, nil
}

// pruneAndDiff applies retention and returns the missing keys plus the number of stored days
func (s *defaultSyncManager) pruneAndDiff(
	ctx context.Context, region string, today packages.DayKey, available packages.DaysAndHours,
) (packages.DaysAndHours, int, *Error) {
	if err := s.store.Prune(ctx, region, today); err != nil {
		return packages.DaysAndHours{}, 0, newError(PhasePruneDiff, KindStorage, err,
			"failed to prune region %s", region)
	}

	localDays, err := s.store.ListDays(ctx, region)
	if err != nil {
		return packages.DaysAndHours{}, 0, newError(PhasePruneDiff, KindStorage, err,
			"failed to list stored days of region %s", region)
	}

	localHours, err := s.store.ListHours(ctx, region, today)
	if err != nil {
		return packages.DaysAndHours{}, 0, newError(PhasePruneDiff, KindStorage, err,
			"failed to list stored hours of region %s", region)
	}

	return Delta(available, localDays, localHours), len(localDays), nil
}

// fetchAndCommit downloads the missing keys in one batch and stores days before hours
func (s *defaultSyncManager) fetchAndCommit(
	ctx context.Context, region string, today packages.DayKey, missing packages.DaysAndHours,
) *Error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.fetchAndCommit")
	defer span.End()

	buckets, err := s.remote.FetchBuckets(ctx, region, today, missing)
	if err != nil {
		otel.RecordError(span, err)
		return newError(PhaseFetchCommit, KindNetwork, err, "failed to fetch packages for region %s", region)
	}

	for _, day := range missing.Days {
		pkg, ok := buckets.Days[day]
		if !ok || pkg == nil {
			err := fmt.Errorf("day %s missing from fetched buckets", day)
			otel.RecordError(span, err)
			return newError(PhaseFetchCommit, KindNetwork, err, "incomplete fetch for region %s", region)
		}
		if err := s.store.PutDay(ctx, region, day, pkg); err != nil {
			otel.RecordError(span, err)
			return newError(PhaseFetchCommit, KindStorage, err, "failed to store day %s of region %s", day, region)
		}
	}

	for _, hour := range missing.Hours {
		pkg, ok := buckets.Hours[hour]
		if !ok || pkg == nil {
			err := fmt.Errorf("hour %d missing from fetched buckets", hour)
			otel.RecordError(span, err)
			return newError(PhaseFetchCommit, KindNetwork, err, "incomplete fetch for region %s", region)
		}
		if err := s.store.PutHour(ctx, region, today, hour, pkg); err != nil {
			otel.RecordError(span, err)
			return newError(PhaseFetchCommit, KindStorage, err,
				"failed to store hour %d of %s for region %s", hour, today, region)
		}
	}

	return nil
}

// Prune applies the retention window to region
func (s *defaultSyncManager) Prune(ctx context.Context, region string, now time.Time) *Error {
	if err := s.store.Prune(ctx, region, packages.Today(now)); err != nil {
		return newError(PhasePruneDiff, KindStorage, err, "failed to prune region %s", region)
	}
	return nil
}

// DownloadConfiguration fetches the detection configuration from the remote service
func (s *defaultSyncManager) DownloadConfiguration(ctx context.Context) ([]byte, *Error) {
	config, err := s.remote.FetchDetectionConfiguration(ctx)
	if err != nil {
		return nil, newError(PhaseConfiguration, KindConfiguration, err, "failed to download detection configuration")
	}
	return config, nil
}

// Detect runs the detector and returns its summary unchanged
func (s *defaultSyncManager) Detect(
	ctx context.Context, config []byte, m *Materialized,
) (*detector.Summary, *Error) {
	var files []detector.PackageFile
	if m != nil {
		files = m.Files
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "sync.Detect",
		otel.AttrFileCount.Int(len(files)))
	defer span.End()

	summary, err := s.detector.Detect(ctx, config, files)
	if err != nil {
		otel.RecordError(span, err)
		return nil, newError(PhaseDetect, KindDetection, err, "exposure detection failed")
	}
	return summary, nil
}
