package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geo-cli/internal/geocode"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "geo.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleResults() []geocode.Result {
	return []geocode.Result{
		{Source: "nominatim", Lat: 42.36, Lon: -71.06, DisplayName: "Boston, MA", Confidence: 0.9},
		{Source: "census", Lat: 42.3601, Lon: -71.0601, DisplayName: "Boston", Confidence: 0.8},
	}
}

func TestGeocodeCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q := geocode.Query{Text: "Boston, MA"}

	got, err := s.GetGeocode(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.PutGeocode(ctx, q, sampleResults(), time.Hour))

	got, err = s.GetGeocode(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, sampleResults(), got)
}

func TestGeocodeCacheKeyNormalization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutGeocode(ctx, geocode.Query{Text: "Boston,  MA"}, sampleResults(), time.Hour))

	// Case and whitespace do not distinguish queries.
	got, err := s.GetGeocode(ctx, geocode.Query{Text: " boston, ma "})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Mode does.
	got, err = s.GetGeocode(ctx, geocode.Query{Text: "Boston, MA", Mode: geocode.ModeSearch})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGeocodeCacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := newTestStore(t, WithClock(clock))
	ctx := context.Background()
	q := geocode.Query{Text: "expiring"}

	require.NoError(t, s.PutGeocode(ctx, q, sampleResults(), time.Hour))

	clock.Advance(30 * time.Minute)
	got, err := s.GetGeocode(ctx, q)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	clock.Advance(31 * time.Minute)
	got, err = s.GetGeocode(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := s.DeleteExpiredGeocodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGeocodeCacheAdapter(t *testing.T) {
	s := newTestStore(t)
	cache := NewGeocodeCache(s, time.Hour)
	ctx := context.Background()
	q := geocode.Query{Text: "adapter test"}

	_, ok := cache.Get(ctx, q)
	assert.False(t, ok)

	cache.Put(ctx, q, sampleResults())

	got, ok := cache.Get(ctx, q)
	assert.True(t, ok)
	assert.Equal(t, sampleResults(), got)
}

func TestEnrichmentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	report := json.RawMessage(`{"layers":[{"id":"flood_zones","features":3}]}`)
	saved, err := s.SaveEnrichment(ctx, "", 42.36, -71.06, report)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := s.GetEnrichment(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, 42.36, got.Lat)
	assert.JSONEq(t, string(report), string(got.Report))

	_, err = s.GetEnrichment(ctx, "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestListEnrichments(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := newTestStore(t, WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveEnrichment(ctx, "", float64(40+i), -75.0, json.RawMessage(`{}`))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	all, err := s.ListEnrichments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 42.0, all[0].Lat, "newest first")

	limited, err := s.ListEnrichments(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
