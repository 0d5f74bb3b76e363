// Package cache provides a small TTL key/value store used to memoise
// expensive upstream lookups such as geocoding and place searches.
package cache

import (
	"context"
	"time"
)

// Store is a TTL-aware byte cache. Implementations must treat expired
// entries as absent.
type Store interface {
	// Get returns the cached value for key. The second return reports
	// whether a live entry was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the given TTL. A non-positive TTL
	// removes the entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry for key if present.
	Delete(ctx context.Context, key string) error

	// PurgeExpired removes entries whose TTL has elapsed and returns the
	// number removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
