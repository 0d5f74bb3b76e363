package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/middleware"
	"github.com/localhq/localservices/internal/services"
	"github.com/localhq/localservices/pkg/errors"
)

// SupportHandler serves the user/staff messaging endpoints.
type SupportHandler struct {
	support *services.SupportService
}

// NewSupportHandler returns a SupportHandler.
func NewSupportHandler(support *services.SupportService) *SupportHandler {
	return &SupportHandler{support: support}
}

// CreateThread opens a support thread for the caller.
func (h *SupportHandler) CreateThread(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	req, valid := bindAndValidate[services.ThreadInput](c)
	if !valid {
		return
	}

	thread, err := h.support.CreateThread(c.Request.Context(), userID, *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, thread)
}

// ListThreads returns the caller's threads, or the open inbox for staff.
func (h *SupportHandler) ListThreads(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	if middleware.IsAdminFromContext(c) && c.Query("inbox") == "open" {
		threads, err := h.support.ListOpenThreads(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		writeSuccess(c, threads)
		return
	}

	threads, err := h.support.ListThreadsForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, threads)
}

// GetThread returns a thread with messages and marks it read.
func (h *SupportHandler) GetThread(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}
	isStaff := middleware.IsAdminFromContext(c)

	thread, err := h.support.GetThread(c.Request.Context(), c.Param("id"), userID, isStaff)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.support.MarkRead(c.Request.Context(), thread.ID, userID, isStaff); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, thread)
}

// AddMessage appends a message to a thread.
func (h *SupportHandler) AddMessage(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	req, valid := bindAndValidate[services.MessageInput](c)
	if !valid {
		return
	}

	message, err := h.support.AddMessage(c.Request.Context(), c.Param("id"), userID, middleware.IsAdminFromContext(c), *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeCreated(c, message)
}

// CloseThread marks a thread resolved. Admin only (routed behind RequireAdmin).
func (h *SupportHandler) CloseThread(c *gin.Context) {
	if err := h.support.CloseThread(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"closed": true})
}
