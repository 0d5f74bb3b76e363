package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/services"
)

// SettingsHandler serves the admin settings plus the public theme endpoint.
type SettingsHandler struct {
	settings     *services.SettingsService
	envGoogleKey string
}

// NewSettingsHandler returns a SettingsHandler. envGoogleKey is the
// environment fallback used when validating a switch to GOOGLE.
func NewSettingsHandler(settings *services.SettingsService, envGoogleKey string) *SettingsHandler {
	return &SettingsHandler{settings: settings, envGoogleKey: envGoogleKey}
}

// GetProviderSettings returns the admin provider settings. The API key is
// never serialised.
func (h *SettingsHandler) GetProviderSettings(c *gin.Context) {
	settings, err := h.settings.GetProviderSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{
		"backend":       settings.Backend,
		"google_region": settings.GoogleRegion,
		"has_api_key":   settings.GoogleMapsAPIKey != "",
	})
}

// UpdateProviderSettings stores the admin provider override.
func (h *SettingsHandler) UpdateProviderSettings(c *gin.Context) {
	req, ok := bindAndValidate[services.ProviderSettingsInput](c)
	if !ok {
		return
	}

	settings, err := h.settings.UpdateProviderSettings(c.Request.Context(), *req, h.envGoogleKey)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{
		"backend":       settings.Backend,
		"google_region": settings.GoogleRegion,
		"has_api_key":   settings.GoogleMapsAPIKey != "",
	})
}

// GetTheme returns the public theme settings the front-end renders with.
func (h *SettingsHandler) GetTheme(c *gin.Context) {
	theme, err := h.settings.GetThemeSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, theme)
}

// UpdateTheme applies admin theme changes.
func (h *SettingsHandler) UpdateTheme(c *gin.Context) {
	req, ok := bindAndValidate[services.ThemeSettingsInput](c)
	if !ok {
		return
	}

	theme, err := h.settings.UpdateThemeSettings(c.Request.Context(), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, theme)
}
