package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/pkg/logger"
)

// ResultTTL is how long upstream lookups are memoised. Keeps repeat searches
// snappy and stays well inside the providers' usage policies.
const ResultTTL = 10 * time.Minute

// CachedBackend wraps a Backend with a TTL cache for geocoding and place
// searches. Cache failures degrade to a direct upstream call.
type CachedBackend struct {
	inner Backend
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// WithCache wraps backend so identical lookups within the TTL hit the cache.
func WithCache(backend Backend, store cache.Store) *CachedBackend {
	return &CachedBackend{
		inner: backend,
		store: store,
		ttl:   ResultTTL,
		log:   logger.WithModule("geo.cache"),
	}
}

func (c *CachedBackend) Name() string { return c.inner.Name() }

func (c *CachedBackend) Geocode(ctx context.Context, loc Location) (*Point, error) {
	key := c.geocodeKey(loc)

	if data, found, err := c.store.Get(ctx, key); err == nil && found {
		var point Point
		if json.Unmarshal(data, &point) == nil {
			return &point, nil
		}
	} else if err != nil {
		c.log.Warn("cache read failed", zap.Error(err))
	}

	point, err := c.inner.Geocode(ctx, loc)
	if err != nil {
		return nil, err
	}

	if point != nil {
		if data, err := json.Marshal(point); err == nil {
			if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
				c.log.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	return point, nil
}

func (c *CachedBackend) SearchPlaces(ctx context.Context, q Query) ([]Place, error) {
	key := c.searchKey(q)

	if data, found, err := c.store.Get(ctx, key); err == nil && found {
		var places []Place
		if json.Unmarshal(data, &places) == nil {
			return places, nil
		}
	} else if err != nil {
		c.log.Warn("cache read failed", zap.Error(err))
	}

	places, err := c.inner.SearchPlaces(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(places); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return places, nil
}

func (c *CachedBackend) geocodeKey(loc Location) string {
	return cacheKey(strings.ToLower(c.inner.Name()), "geocode", locationKey(loc))
}

func (c *CachedBackend) searchKey(q Query) string {
	return cacheKey(
		strings.ToLower(c.inner.Name()),
		"search",
		strings.ToLower(q.CategorySlug),
		locationKey(q.Location),
		fmt.Sprintf("r%d", q.RadiusKm),
		fmt.Sprintf("l%d", q.Limit),
	)
}

func locationKey(loc Location) string {
	if loc.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *loc.Latitude, *loc.Longitude)
	}
	if postal := NormalizeCAPostal(loc.PostalCode); postal != "" {
		return strings.ReplaceAll(postal, " ", "")
	}
	return strings.ToLower(strings.TrimSpace(loc.City)) + "," + strings.ToLower(strings.TrimSpace(loc.State))
}
