package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/response"
)

type rateBucket struct {
	count      int
	windowEnds time.Time
}

// RateLimiter applies a fixed-window per-client limit. Suitable for
// single-instance deployments; state is in-process.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket

	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window per client key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Middleware enforces the limit keyed by client IP and route.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + "|" + c.FullPath()
		if !rl.allow(key) {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok || now.After(bucket.windowEnds) {
		rl.buckets[key] = &rateBucket{count: 1, windowEnds: now.Add(rl.window)}
		rl.sweepLocked(now)
		return true
	}

	if bucket.count >= rl.limit {
		return false
	}
	bucket.count++
	return true
}

// sweepLocked drops expired buckets so the map does not grow without bound.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if len(rl.buckets) < 4096 {
		return
	}
	for key, bucket := range rl.buckets {
		if now.After(bucket.windowEnds) {
			delete(rl.buckets, key)
		}
	}
}
