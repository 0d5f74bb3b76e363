package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/services"
)

// AdsHandler serves ad units: a public placement lookup and admin CRUD.
type AdsHandler struct {
	ads *services.AdsService
}

// NewAdsHandler returns an AdsHandler.
func NewAdsHandler(ads *services.AdsService) *AdsHandler {
	return &AdsHandler{ads: ads}
}

// GetPlacement returns the unit to render in a placement, or null.
func (h *AdsHandler) GetPlacement(c *gin.Context) {
	unit, err := h.ads.EligibleUnit(c.Request.Context(), c.Param("placement"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, unit)
}

// ListUnits returns every ad unit for the admin screen.
func (h *AdsHandler) ListUnits(c *gin.Context) {
	units, err := h.ads.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, units)
}

// CreateUnit adds an ad unit.
func (h *AdsHandler) CreateUnit(c *gin.Context) {
	req, ok := bindAndValidate[services.AdUnitInput](c)
	if !ok {
		return
	}

	unit, err := h.ads.Create(c.Request.Context(), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, unit)
}

// UpdateUnit replaces an ad unit.
func (h *AdsHandler) UpdateUnit(c *gin.Context) {
	req, ok := bindAndValidate[services.AdUnitInput](c)
	if !ok {
		return
	}

	unit, err := h.ads.Update(c.Request.Context(), c.Param("id"), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, unit)
}

// DeleteUnit removes an ad unit.
func (h *AdsHandler) DeleteUnit(c *gin.Context) {
	if err := h.ads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"deleted": true})
}
