package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/services"
)

// ReportsHandler serves the admin analytics summary.
type ReportsHandler struct {
	analytics *services.AnalyticsService
}

// NewReportsHandler returns a ReportsHandler.
func NewReportsHandler(analytics *services.AnalyticsService) *ReportsHandler {
	return &ReportsHandler{analytics: analytics}
}

// Summary aggregates searches and usage into the admin report.
func (h *ReportsHandler) Summary(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	report, err := h.analytics.BuildReport(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, report)
}
