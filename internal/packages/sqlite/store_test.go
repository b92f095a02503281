package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/keysync/internal/packages"
)

func openTempStore(t *testing.T, opts ...packages.Option) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "packages.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func pkg(content string) *packages.Package {
	return &packages.Package{Bin: []byte(content + ".bin"), Signature: []byte(content + ".sig")}
}

func days(t *testing.T, from packages.DayKey, n int) []packages.DayKey {
	t.Helper()
	out := make([]packages.DayKey, 0, n)
	for i := range n {
		day, err := from.AddDays(i)
		require.NoError(t, err)
		out = append(out, day)
	}
	return out
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestPutAndGetDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	got, err := store.GetDay(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	assert.Nil(t, got, "missing day is not an error")

	require.NoError(t, store.PutDay(ctx, "DE", "2020-06-01", pkg("a")))
	got, err = store.GetDay(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("a.bin"), got.Bin)
	assert.Equal(t, []byte("a.sig"), got.Signature)

	// overwrite is idempotent
	require.NoError(t, store.PutDay(ctx, "DE", "2020-06-01", pkg("b")))
	require.NoError(t, store.PutDay(ctx, "DE", "2020-06-01", pkg("b")))
	got, err = store.GetDay(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	assert.Equal(t, []byte("b.bin"), got.Bin)

	listed, err := store.ListDays(ctx, "DE")
	require.NoError(t, err)
	assert.Equal(t, []packages.DayKey{"2020-06-01"}, listed)

	other, err := store.GetDay(ctx, "IT", "2020-06-01")
	require.NoError(t, err)
	assert.Nil(t, other, "regions are partitioned")
}

func TestPutRejectsInvalidKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	tests := []struct {
		name string
		put  func() error
	}{
		{"empty region", func() error { return store.PutDay(ctx, "", "2020-06-01", pkg("a")) }},
		{"bad day", func() error { return store.PutDay(ctx, "DE", "20200601", pkg("a")) }},
		{"hour too large", func() error { return store.PutHour(ctx, "DE", "2020-06-01", 24, pkg("a")) }},
		{"negative hour", func() error { return store.PutHour(ctx, "DE", "2020-06-01", -1, pkg("a")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.put(), packages.ErrInvalidKey)
		})
	}
}

func TestDayWriteRemovesHours(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	for hour := range 5 {
		require.NoError(t, store.PutHour(ctx, "DE", "2020-06-01", packages.HourKey(hour), pkg(fmt.Sprint(hour))))
	}
	require.NoError(t, store.PutHour(ctx, "DE", "2020-06-02", 1, pkg("other-day")))

	hours, err := store.ListHours(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	assert.Equal(t, []packages.HourKey{0, 1, 2, 3, 4}, hours)

	require.NoError(t, store.PutDay(ctx, "DE", "2020-06-01", pkg("day")))

	hours, err = store.ListHours(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	assert.Empty(t, hours)

	hours, err = store.ListHours(ctx, "DE", "2020-06-02")
	require.NoError(t, err)
	assert.Equal(t, []packages.HourKey{1}, hours, "hours of other days are kept")
}

func TestHourWriteAfterDayIsAccepted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	require.NoError(t, store.PutDay(ctx, "DE", "2020-06-01", pkg("day")))
	require.NoError(t, store.PutHour(ctx, "DE", "2020-06-01", 3, pkg("hour")))

	hoursOnly, err := store.ListAll(ctx, "DE", "2020-06-01", true)
	require.NoError(t, err)
	assert.Len(t, hoursOnly, 1)

	dayOnly, err := store.ListAll(ctx, "DE", "2020-06-01", false)
	require.NoError(t, err)
	require.Len(t, dayOnly, 1)
	assert.Equal(t, []byte("day.bin"), dayOnly[0].Bin)

	got, err := store.GetDay(ctx, "DE", "2020-06-01")
	require.NoError(t, err)
	assert.Equal(t, []byte("day.bin"), got.Bin, "hour write leaves the day entry untouched")
}

func TestListAllCapsHours(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t, packages.WithHourCap(3))

	for hour := range 6 {
		require.NoError(t, store.PutHour(ctx, "DE", "2020-06-01", packages.HourKey(hour), pkg(fmt.Sprint(hour))))
	}

	got, err := store.ListAll(ctx, "DE", "2020-06-01", true)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("5.bin"), got[0].Bin, "most recent hour first")
	assert.Equal(t, []byte("3.bin"), got[2].Bin)

	none, err := store.ListAll(ctx, "DE", "2020-06-01", false)
	require.NoError(t, err)
	assert.Empty(t, none, "hour packages do not substitute for a day package")
}

func TestPruneRetentionWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t, packages.WithRetentionDays(14))

	for _, day := range days(t, "2020-06-01", 20) {
		require.NoError(t, store.PutDay(ctx, "DE", day, pkg(string(day))))
	}
	for _, day := range []packages.DayKey{"2020-06-01", "2020-06-05", "2020-06-18", "2020-06-19", "2020-06-20"} {
		require.NoError(t, store.PutDay(ctx, "IT", day, pkg(string(day))))
	}
	require.NoError(t, store.PutHour(ctx, "DE", "2020-06-02", 4, pkg("old-hour")))

	require.NoError(t, store.Prune(ctx, "DE", "2020-06-20"))
	require.NoError(t, store.Prune(ctx, "IT", "2020-06-20"))

	de, err := store.ListDays(ctx, "DE")
	require.NoError(t, err)
	assert.Equal(t, days(t, "2020-06-07", 14), de)

	it, err := store.ListDays(ctx, "IT")
	require.NoError(t, err)
	assert.Equal(t, []packages.DayKey{"2020-06-18", "2020-06-19", "2020-06-20"}, it)

	hours, err := store.ListHours(ctx, "DE", "2020-06-02")
	require.NoError(t, err)
	assert.Empty(t, hours, "hours of pruned days are removed")
}

func TestPruneKeepsShortHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	week := days(t, "2020-06-01", 7)
	for _, day := range week {
		require.NoError(t, store.PutDay(ctx, "DE", day, pkg(string(day))))
	}
	require.NoError(t, store.Prune(ctx, "DE", "2020-06-07"))

	got, err := store.ListDays(ctx, "DE")
	require.NoError(t, err)
	assert.Equal(t, week, got)
}

func TestClosedStoreFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")

	_, err := store.ListDays(ctx, "DE")
	var storageErr *packages.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, packages.ErrStoreClosed)

	err = store.PutDay(ctx, "DE", "2020-06-01", pkg("a"))
	assert.ErrorIs(t, err, packages.ErrStoreClosed)

	_, err = store.GetDay(ctx, "DE", "2020-06-01")
	assert.ErrorIs(t, err, packages.ErrStoreClosed)
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	var wg sync.WaitGroup
	for i, day := range days(t, "2020-06-01", 10) {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.PutDay(ctx, "DE", day, pkg(string(day))))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.PutHour(ctx, "IT", day, packages.HourKey(i), pkg(string(day))))
		}()
	}
	wg.Wait()

	got, err := store.ListDays(ctx, "DE")
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()
	store := openTempStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.ListDays(ctx, "DE")
	assert.ErrorIs(t, err, context.Canceled)
}
