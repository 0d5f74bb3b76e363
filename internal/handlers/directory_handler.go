package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/services"
)

// DirectoryHandler serves categories and provider details plus the admin
// directory management endpoints.
type DirectoryHandler struct {
	categories *services.CategoryService
	providers  *services.ProviderService
}

// NewDirectoryHandler returns a DirectoryHandler.
func NewDirectoryHandler(categories *services.CategoryService, providers *services.ProviderService) *DirectoryHandler {
	return &DirectoryHandler{categories: categories, providers: providers}
}

// ListCategories returns the active categories for the public UI.
func (h *DirectoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, categories)
}

// ListAllCategories returns every category for the admin UI.
func (h *DirectoryHandler) ListAllCategories(c *gin.Context) {
	categories, err := h.categories.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, categories)
}

// CreateCategory adds a category.
func (h *DirectoryHandler) CreateCategory(c *gin.Context) {
	req, ok := bindAndValidate[services.CategoryCreateInput](c)
	if !ok {
		return
	}

	category, err := h.categories.Create(c.Request.Context(), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, category)
}

// UpdateCategory applies changes to a category.
func (h *DirectoryHandler) UpdateCategory(c *gin.Context) {
	req, ok := bindAndValidate[services.CategoryUpdateInput](c)
	if !ok {
		return
	}

	category, err := h.categories.Update(c.Request.Context(), c.Param("id"), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, category)
}

// GetProvider returns one provider and records a view when the visitor
// consented to analytics.
func (h *DirectoryHandler) GetProvider(c *gin.Context) {
	if analyticsConsented(c) {
		provider, err := h.providers.TrackUsage(c.Request.Context(), c.Param("id"), "view", attributedUserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		writeSuccess(c, provider)
		return
	}

	provider, err := h.providers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, provider)
}

// TrackProviderUsage records a contact or outbound click.
func (h *DirectoryHandler) TrackProviderUsage(c *gin.Context) {
	type usageRequest struct {
		Action string `json:"action" validate:"required,oneof=view contact click_website"`
	}
	req, ok := bindAndValidate[usageRequest](c)
	if !ok {
		return
	}

	provider, err := h.providers.TrackUsage(c.Request.Context(), c.Param("id"), req.Action, attributedUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"provider_id": provider.ID, "action": req.Action})
}

// ListCategoryProviders returns the curated providers in a category.
func (h *DirectoryHandler) ListCategoryProviders(c *gin.Context) {
	category, err := h.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	providers, err := h.providers.ListByCategory(c.Request.Context(), category.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"category": category, "providers": providers})
}

// CreateProvider adds a curated provider.
func (h *DirectoryHandler) CreateProvider(c *gin.Context) {
	req, ok := bindAndValidate[services.ProviderInput](c)
	if !ok {
		return
	}

	provider, err := h.providers.Create(c.Request.Context(), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, provider)
}

// UpdateProvider replaces a provider's fields.
func (h *DirectoryHandler) UpdateProvider(c *gin.Context) {
	req, ok := bindAndValidate[services.ProviderInput](c)
	if !ok {
		return
	}

	provider, err := h.providers.Update(c.Request.Context(), c.Param("id"), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, provider)
}

// DeactivateProvider removes a provider from searches.
func (h *DirectoryHandler) DeactivateProvider(c *gin.Context) {
	if err := h.providers.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"deactivated": true})
}
