// Package remote is the client of the key server publishing day and hour packages.
package remote

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/stacklok/keysync/internal/httpclient"
	"github.com/stacklok/keysync/internal/packages"
)

const (
	// ExportBinName is the archive entry holding the package payload
	ExportBinName = "export.bin"

	// ExportSigName is the archive entry holding the detached signature
	ExportSigName = "export.sig"

	// DefaultFetchConcurrency bounds the number of parallel bucket downloads
	DefaultFetchConcurrency = 8

	mediaJSON = "application/json"
	mediaZip  = "application/zip"
)

// Client is the remote key server collaborator
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/stacklok/keysync/internal/remote Client
type Client interface {
	// ListAvailableDays returns the days published for region
	ListAvailableDays(ctx context.Context, region string) ([]packages.DayKey, error)

	// ListAvailableHours returns the hours published for region on day
	ListAvailableHours(ctx context.Context, region string, day packages.DayKey) ([]packages.HourKey, error)

	// FetchBuckets downloads every requested day and hour package. Hours belong to day.
	// The result is complete or an error is returned.
	FetchBuckets(
		ctx context.Context, region string, day packages.DayKey, keys packages.DaysAndHours,
	) (*packages.Buckets, error)

	// FetchDetectionConfiguration returns the opaque detection configuration
	FetchDetectionConfiguration(ctx context.Context) ([]byte, error)
}

// httpClient talks to a key server over HTTP
type httpClient struct {
	http                httpclient.Client
	baseURL             *url.URL
	configurationRegion string
	concurrency         int64
}

// Option configures the HTTP remote client
type Option func(*httpClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c httpclient.Client) Option {
	return func(h *httpClient) {
		h.http = c
	}
}

// WithConfigurationRegion sets the region whose detection configuration is fetched
func WithConfigurationRegion(region string) Option {
	return func(h *httpClient) {
		h.configurationRegion = region
	}
}

// WithFetchConcurrency bounds the number of parallel bucket downloads
func WithFetchConcurrency(n int) Option {
	return func(h *httpClient) {
		if n > 0 {
			h.concurrency = int64(n)
		}
	}
}

// NewHTTPClient creates a Client for the key server at baseURL
func NewHTTPClient(baseURL string, opts ...Option) (Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https, got %q", u.Scheme)
	}

	c := &httpClient{
		http:                httpclient.NewDefaultClient(),
		baseURL:             u,
		configurationRegion: "DE",
		concurrency:         DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *httpClient) endpoint(segments ...string) string {
	all := append([]string{"version", "v1"}, segments...)
	return c.baseURL.JoinPath(all...).String()
}

func (c *httpClient) keysEndpoint(region string, segments ...string) string {
	return c.endpoint(append([]string{"diagnosis-keys", "country", region, "date"}, segments...)...)
}

// ListAvailableDays fetches the JSON list of published days
func (c *httpClient) ListAvailableDays(ctx context.Context, region string) ([]packages.DayKey, error) {
	body, err := c.http.Get(ctx, c.keysEndpoint(region), mediaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to list days for %s: %w", region, err)
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode day list for %s: %w", region, err)
	}
	days := make([]packages.DayKey, 0, len(raw))
	for _, s := range raw {
		day, err := packages.ParseDayKey(s)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return packages.SortDays(days), nil
}

// ListAvailableHours fetches the JSON list of published hours of day
func (c *httpClient) ListAvailableHours(
	ctx context.Context, region string, day packages.DayKey,
) ([]packages.HourKey, error) {
	body, err := c.http.Get(ctx, c.keysEndpoint(region, string(day), "hour"), mediaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to list hours for %s %s: %w", region, day, err)
	}

	var raw []int
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode hour list for %s %s: %w", region, day, err)
	}
	hours := make([]packages.HourKey, 0, len(raw))
	for _, h := range raw {
		hour := packages.HourKey(h)
		if err := hour.Validate(); err != nil {
			return nil, err
		}
		hours = append(hours, hour)
	}
	return packages.SortHours(hours), nil
}

// FetchBuckets downloads all packages concurrently and joins every failure
func (c *httpClient) FetchBuckets(
	ctx context.Context, region string, day packages.DayKey, keys packages.DaysAndHours,
) (*packages.Buckets, error) {
	buckets := &packages.Buckets{
		Days:  make(map[packages.DayKey]*packages.Package, len(keys.Days)),
		Hours: make(map[packages.HourKey]*packages.Package, len(keys.Hours)),
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	sem := semaphore.NewWeighted(c.concurrency)
	fetch := func(target string, store func(*packages.Package)) {
		defer wg.Done()
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return
		}
		defer sem.Release(1)

		pkg, err := c.fetchPackage(ctx, target)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		store(pkg)
	}

	for _, d := range keys.Days {
		wg.Add(1)
		go fetch(c.keysEndpoint(region, string(d)), func(p *packages.Package) { buckets.Days[d] = p })
	}
	for _, h := range keys.Hours {
		wg.Add(1)
		go fetch(
			c.keysEndpoint(region, string(day), "hour", strconv.Itoa(int(h))),
			func(p *packages.Package) { buckets.Hours[h] = p },
		)
	}
	wg.Wait()

	if len(errs) > 0 {
		slog.Warn("Bucket fetch failed", "region", region, "failures", len(errs))
		return nil, errors.Join(errs...)
	}
	return buckets, nil
}

func (c *httpClient) fetchPackage(ctx context.Context, target string) (*packages.Package, error) {
	body, err := c.http.Get(ctx, target, mediaZip)
	if err != nil {
		return nil, err
	}
	pkg, err := DecodeArchive(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode package from %s: %w", target, err)
	}
	return pkg, nil
}

// FetchDetectionConfiguration returns the raw configuration bytes
func (c *httpClient) FetchDetectionConfiguration(ctx context.Context) ([]byte, error) {
	body, err := c.http.Get(ctx,
		c.endpoint("configuration", "country", c.configurationRegion, "app_config"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detection configuration: %w", err)
	}
	return body, nil
}

// DecodeArchive extracts export.bin and export.sig from a zip archive
func DecodeArchive(data []byte) (*packages.Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pkg := &packages.Package{}
	for _, f := range zr.File {
		var dst *[]byte
		switch f.Name {
		case ExportBinName:
			dst = &pkg.Bin
		case ExportSigName:
			dst = &pkg.Signature
		default:
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		*dst, err = io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
	}
	if pkg.Bin == nil || pkg.Signature == nil {
		return nil, fmt.Errorf("archive must contain %s and %s", ExportBinName, ExportSigName)
	}
	return pkg, nil
}

// EncodeArchive packs a package into the zip layout served by the key server
func EncodeArchive(pkg *packages.Package) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct {
		name string
		data []byte
	}{{ExportBinName, pkg.Bin}, {ExportSigName, pkg.Signature}} {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(entry.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
