package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/pkg/crypto"
	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/response"
)

const (
	// CSRFCookieName holds the double-submit token.
	CSRFCookieName = "ls_csrftoken"
	// CSRFHeaderName is where clients echo the cookie value back.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenBytes   = 32
	csrfCookieMaxAge = 12 * 60 * 60
)

// CSRF implements double-submit-cookie protection for unsafe methods. When
// trustedOrigins is non-empty, cross-origin requests must also come from a
// trusted origin.
func CSRF(trustedOrigins []string, secureCookies bool) gin.HandlerFunc {
	trusted := make(map[string]struct{}, len(trustedOrigins))
	for _, origin := range trustedOrigins {
		origin = strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/")
		if origin != "" {
			trusted[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		cookieToken, err := c.Cookie(CSRFCookieName)
		if err != nil || cookieToken == "" {
			token, genErr := crypto.GenerateToken(csrfTokenBytes)
			if genErr == nil {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(CSRFCookieName, token, csrfCookieMaxAge, "/", "", secureCookies, false)
				cookieToken = token
			}
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" && len(trusted) > 0 {
			if !originTrusted(origin, c.Request, trusted) {
				response.Error(c, errors.ErrCSRFInvalid)
				c.Abort()
				return
			}
		}

		headerToken := c.GetHeader(CSRFHeaderName)
		if headerToken == "" {
			headerToken = c.PostForm("csrf_token")
		}

		if cookieToken == "" || headerToken == "" ||
			subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
			response.Error(c, errors.ErrCSRFInvalid)
			c.Abort()
			return
		}

		c.Next()
	}
}

// originTrusted accepts same-origin requests and any explicitly trusted origin.
func originTrusted(origin string, req *http.Request, trusted map[string]struct{}) bool {
	normalized := strings.TrimRight(strings.ToLower(origin), "/")
	if _, ok := trusted[normalized]; ok {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, req.Host)
}
