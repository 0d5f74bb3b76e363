package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/services"
	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/validator"
)

// SearchHandler serves the public directory search.
type SearchHandler struct {
	directory *services.DirectoryService
}

// NewSearchHandler returns a SearchHandler.
func NewSearchHandler(directory *services.DirectoryService) *SearchHandler {
	return &SearchHandler{directory: directory}
}

// Search runs a directory search. GET with query parameters so results are
// shareable links.
func (h *SearchHandler) Search(c *gin.Context) {
	input := services.SearchInput{
		Query:        c.Query("q"),
		CategorySlug: c.Query("category"),
		City:         c.Query("city"),
		State:        c.Query("state"),
		PostalCode:   c.Query("postal_code"),
		UserID:       attributedUserID(c),
	}

	if lat, ok := parseFloatQuery(c, "lat"); ok {
		input.Latitude = lat
	}
	if lng, ok := parseFloatQuery(c, "lng"); ok {
		input.Longitude = lng
	}
	if radius := c.Query("radius_km"); radius != "" {
		if parsed, err := strconv.Atoi(radius); err == nil {
			input.RadiusKm = parsed
		}
	}

	if err := validator.ValidateStruct(&input); err != nil {
		writeError(c, errors.NewBadRequest(err.Error()))
		return
	}

	result, err := h.directory.Search(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, result)
}

// SetAnalyticsConsent stores the visitor's analytics choice in a cookie.
func (h *SearchHandler) SetAnalyticsConsent(c *gin.Context) {
	type consentRequest struct {
		Consent bool `json:"consent"`
	}
	req, ok := bindAndValidate[consentRequest](c)
	if !ok {
		return
	}

	value := "no"
	if req.Consent {
		value = "yes"
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AnalyticsConsentCookie, value, 365*24*60*60, "/", "", false, false)

	writeSuccess(c, gin.H{"consent": req.Consent})
}

func parseFloatQuery(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
