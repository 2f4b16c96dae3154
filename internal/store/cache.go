package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/geocode"
)

// GeocodeCache adapts a Store to the composite geocoder's cache interface.
// Storage failures degrade to cache misses so a broken cache never breaks a
// search.
type GeocodeCache struct {
	store *Store
	ttl   time.Duration
}

// NewGeocodeCache wraps a store with the given entry TTL.
func NewGeocodeCache(s *Store, ttl time.Duration) *GeocodeCache {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	return &GeocodeCache{store: s, ttl: ttl}
}

func (c *GeocodeCache) Get(ctx context.Context, q geocode.Query) ([]geocode.Result, bool) {
	results, err := c.store.GetGeocode(ctx, q)
	if err != nil {
		zap.L().Warn("geocode cache read failed", zap.Error(err))
		return nil, false
	}
	return results, results != nil
}

func (c *GeocodeCache) Put(ctx context.Context, q geocode.Query, results []geocode.Result) {
	if err := c.store.PutGeocode(ctx, q, results, c.ttl); err != nil {
		zap.L().Warn("geocode cache write failed", zap.Error(err))
	}
}
