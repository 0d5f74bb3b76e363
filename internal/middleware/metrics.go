package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/pkg/metrics"
)

// Metrics observes request latency per route. The route template is used,
// not the raw path, to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
