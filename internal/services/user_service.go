package services

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/crypto"
	"github.com/localhq/localservices/pkg/errors"
)

// UserService manages accounts and their search preferences.
type UserService struct {
	db *gorm.DB
}

// NewUserService returns a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate verifies credentials and returns the user. Inactive users
// cannot sign in.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Take(&user, "username = ?", strings.TrimSpace(username)).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, errors.ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(user.PasswordHash, password) {
		return nil, errors.ErrInvalidCredentials
	}
	return &user, nil
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register creates an account with an empty profile.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.UserProfile{UserID: user.ID}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, errors.NewBadRequest("Username is already taken")
		}
		return nil, err
	}

	return &user, nil
}

// GetByID returns a user by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Take(&user, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile returns a user's profile, creating an empty one when missing.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).
		Where(models.UserProfile{UserID: userID}).
		Attrs(models.UserProfile{UserID: userID, DefaultRadiusKm: 50, AllowGeolocation: true}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileInput carries profile changes used to pre-fill searches.
type ProfileInput struct {
	City       string   `json:"city" validate:"omitempty,max=80"`
	State      string   `json:"state" validate:"omitempty,max=80"`
	PostalCode string   `json:"postal_code" validate:"omitempty,max=20"`
	Country    string   `json:"country" validate:"omitempty,max=80"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`

	DefaultRadiusKm  *int  `json:"default_radius_km" validate:"omitempty,min=1,max=100"`
	AllowGeolocation *bool `json:"allow_geolocation"`
}

// UpdateProfile applies profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*models.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"city":        input.City,
		"state":       input.State,
		"postal_code": input.PostalCode,
		"latitude":    input.Latitude,
		"longitude":   input.Longitude,
	}
	if input.Country != "" {
		updates["country"] = input.Country
	}
	if input.DefaultRadiusKm != nil {
		updates["default_radius_km"] = *input.DefaultRadiusKm
	}
	if input.AllowGeolocation != nil {
		updates["allow_geolocation"] = *input.AllowGeolocation
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}
