package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/keysync/internal/httpclient"
	"github.com/stacklok/keysync/internal/packages"
)

type fakeServer struct {
	days     []string
	hours    []int
	failPath string
	requests atomic.Int32
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	path := r.URL.Path
	if f.failPath != "" && path == f.failPath {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	const prefix = "/version/v1/diagnosis-keys/country/DE/date"
	switch {
	case path == prefix:
		_ = json.NewEncoder(w).Encode(f.days)
	case strings.HasSuffix(path, "/hour"):
		_ = json.NewEncoder(w).Encode(f.hours)
	case strings.HasPrefix(path, prefix+"/"):
		key := strings.TrimPrefix(path, prefix+"/")
		data, err := EncodeArchive(&packages.Package{Bin: []byte("bin:" + key), Signature: []byte("sig:" + key)})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(data)
	case path == "/version/v1/configuration/country/DE/app_config":
		_, _ = w.Write([]byte("config-blob"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL, WithConfigurationRegion("DE"))
	require.NoError(t, err)
	return client
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPClient("ftp://example.com")
	require.Error(t, err)

	_, err = NewHTTPClient("https://example.com/base")
	require.NoError(t, err)
}

func TestListAvailableDaysAndHours(t *testing.T) {
	t.Parallel()

	client := newClient(t, &fakeServer{
		days:  []string{"2020-06-03", "2020-06-01", "2020-06-02"},
		hours: []int{5, 1, 3},
	})
	ctx := context.Background()

	days, err := client.ListAvailableDays(ctx, "DE")
	require.NoError(t, err)
	assert.Equal(t, []packages.DayKey{"2020-06-01", "2020-06-02", "2020-06-03"}, days)

	hours, err := client.ListAvailableHours(ctx, "DE", "2020-06-03")
	require.NoError(t, err)
	assert.Equal(t, []packages.HourKey{1, 3, 5}, hours)
}

func TestListAvailableDaysRejectsMalformedDays(t *testing.T) {
	t.Parallel()

	client := newClient(t, &fakeServer{days: []string{"06/01/2020"}})
	_, err := client.ListAvailableDays(context.Background(), "DE")
	assert.ErrorIs(t, err, packages.ErrInvalidKey)
}

func TestFetchBuckets(t *testing.T) {
	t.Parallel()

	client := newClient(t, &fakeServer{})
	buckets, err := client.FetchBuckets(context.Background(), "DE", "2020-06-03", packages.DaysAndHours{
		Days:  []packages.DayKey{"2020-06-01", "2020-06-02"},
		Hours: []packages.HourKey{4},
	})
	require.NoError(t, err)

	require.Len(t, buckets.Days, 2)
	assert.Equal(t, []byte("bin:2020-06-01"), buckets.Days["2020-06-01"].Bin)
	assert.Equal(t, []byte("sig:2020-06-02"), buckets.Days["2020-06-02"].Signature)
	require.Len(t, buckets.Hours, 1)
	assert.Equal(t, []byte("bin:2020-06-03/hour/4"), buckets.Hours[4].Bin)
}

func TestFetchBucketsCollectsAllFailures(t *testing.T) {
	t.Parallel()

	server := &fakeServer{failPath: "/version/v1/diagnosis-keys/country/DE/date/2020-06-02"}
	client := newClient(t, server)

	_, err := client.FetchBuckets(context.Background(), "DE", "2020-06-03", packages.DaysAndHours{
		Days: []packages.DayKey{"2020-06-01", "2020-06-02", "2020-06-03"},
	})
	require.Error(t, err)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, int32(3), server.requests.Load(), "every bucket is attempted")
}

func TestFetchDetectionConfiguration(t *testing.T) {
	t.Parallel()

	client := newClient(t, &fakeServer{})
	cfg, err := client.FetchDetectionConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("config-blob"), cfg)
}

func TestDecodeArchive(t *testing.T) {
	t.Parallel()

	data, err := EncodeArchive(&packages.Package{Bin: []byte("b"), Signature: []byte("s")})
	require.NoError(t, err)

	pkg, err := DecodeArchive(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), pkg.Bin)
	assert.Equal(t, []byte("s"), pkg.Signature)

	_, err = DecodeArchive([]byte("not a zip"))
	require.Error(t, err)
}
