package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/auth"
	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/response"
)

// Context keys set by the auth middleware.
const (
	ContextUserID  = "auth.user_id"
	ContextIsAdmin = "auth.is_admin"
)

// RequireAuth validates the bearer token and stores the claims on the context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, jwtService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// RequireAdmin validates the bearer token and rejects non-admin users.
func RequireAdmin(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, jwtService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, true)
		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present but lets
// anonymous requests through. Used by the public search endpoints so signed
// in users get attributed analytics.
func OptionalAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := claimsFromRequest(c, jwtService); err == nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextIsAdmin, claims.IsAdmin)
		}
		c.Next()
	}
}

func claimsFromRequest(c *gin.Context, jwtService *auth.JWTService) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, errors.ErrUnauthorized
	}

	return jwtService.ParseToken(parts[1])
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c *gin.Context) (string, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// IsAdminFromContext reports whether the authenticated user is an admin.
func IsAdminFromContext(c *gin.Context) bool {
	value, ok := c.Get(ContextIsAdmin)
	if !ok {
		return false
	}
	isAdmin, _ := value.(bool)
	return isAdmin
}
