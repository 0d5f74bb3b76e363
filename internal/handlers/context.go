package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/middleware"
	"github.com/localhq/localservices/pkg/response"
)

// AnalyticsConsentCookie records whether the visitor accepted analytics.
const AnalyticsConsentCookie = "ls_analytics_consent"

func writeError(c *gin.Context, err error) {
	response.Error(c, err)
}

func writeSuccess(c *gin.Context, data any) {
	response.Success(c, http.StatusOK, data)
}

func writeCreated(c *gin.Context, data any) {
	response.Success(c, http.StatusCreated, data)
}

// currentUserID returns the authenticated user id pointer, or nil for
// anonymous requests. Analytics attribution also requires consent.
func currentUserID(c *gin.Context) *string {
	id, ok := middleware.UserIDFromContext(c)
	if !ok {
		return nil
	}
	return &id
}

// analyticsConsented reports whether the visitor opted in to analytics
// attribution.
func analyticsConsented(c *gin.Context) bool {
	value, err := c.Cookie(AnalyticsConsentCookie)
	return err == nil && value == "yes"
}

// attributedUserID returns the user id only when the visitor consented to
// analytics; searches still work either way.
func attributedUserID(c *gin.Context) *string {
	if !analyticsConsented(c) {
		return nil
	}
	return currentUserID(c)
}
