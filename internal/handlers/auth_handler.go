package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/localhq/localservices/internal/auth"
	"github.com/localhq/localservices/internal/middleware"
	"github.com/localhq/localservices/internal/services"
	"github.com/localhq/localservices/pkg/errors"
)

// AuthHandler serves sign-in, registration, and session info.
type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTService
}

// NewAuthHandler returns an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindAndValidate[loginRequest](c)
	if !ok {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		writeError(c, err)
		return
	}

	writeSuccess(c, tokenResponse{
		Token:     token,
		ExpiresIn: int64(h.jwt.TokenTTL().Seconds()),
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	})
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	req, ok := bindAndValidate[services.RegisterInput](c)
	if !ok {
		return
	}

	user, err := h.users.Register(c.Request.Context(), *req)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		writeError(c, err)
		return
	}

	writeCreated(c, tokenResponse{
		Token:     token,
		ExpiresIn: int64(h.jwt.TokenTTL().Seconds()),
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	})
}

// Me returns the authenticated user with profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, user)
}

// GetProfile returns the caller's search preferences.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, profile)
}

// UpdateProfile updates the caller's search preferences.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		writeError(c, errors.ErrUnauthorized)
		return
	}

	req, valid := bindAndValidate[services.ProfileInput](c)
	if !valid {
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), userID, *req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, profile)
}
