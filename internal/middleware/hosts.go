package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/logger"
	"github.com/localhq/localservices/pkg/response"
)

// AllowedHosts rejects requests whose Host header is not in the allow-list.
// An entry of "*" disables the check; a leading dot allows subdomains.
func AllowedHosts(hosts []string) gin.HandlerFunc {
	log := logger.WithModule("middleware.hosts")

	allowAll := false
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if h == "*" {
			allowAll = true
		}
		normalized = append(normalized, h)
	}

	return func(c *gin.Context) {
		if allowAll {
			c.Next()
			return
		}

		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.ToLower(host)

		if !hostAllowed(host, normalized) {
			log.Warn("rejected disallowed host", zap.String("host", host))
			response.Error(c, errors.ErrHostNotAllowed)
			c.Abort()
			return
		}
		c.Next()
	}
}

func hostAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		if strings.HasPrefix(entry, ".") {
			if host == entry[1:] || strings.HasSuffix(host, entry) {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}
