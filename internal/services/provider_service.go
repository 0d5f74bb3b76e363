package services

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/geo"
	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

// ProviderService manages curated directory providers.
type ProviderService struct {
	db        *gorm.DB
	analytics *AnalyticsService
}

// NewProviderService returns a ProviderService.
func NewProviderService(db *gorm.DB, analytics *AnalyticsService) *ProviderService {
	return &ProviderService{db: db, analytics: analytics}
}

// Get returns an active provider by id, with its category preloaded.
func (s *ProviderService) Get(ctx context.Context, id string) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	err := s.db.WithContext(ctx).
		Preload("Category").
		Take(&provider, "id = ? AND is_active = ?", id, true).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListByCategory returns the active providers in a category, suggested first.
func (s *ProviderService) ListByCategory(ctx context.Context, categoryID string) ([]models.ServiceProvider, error) {
	var providers []models.ServiceProvider
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("is_suggested DESC, suggested_rank ASC, name ASC").
		Find(&providers).Error
	return providers, err
}

// ProviderInput describes a provider create or full update.
type ProviderInput struct {
	CategoryID  string `json:"category_id" validate:"required,uuid4"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`

	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Website string `json:"website" validate:"omitempty,url,max=200"`

	AddressLine1 string `json:"address_line1" validate:"omitempty,max=120"`
	AddressLine2 string `json:"address_line2" validate:"omitempty,max=120"`
	City         string `json:"city" validate:"omitempty,max=80"`
	State        string `json:"state" validate:"omitempty,max=80"`
	PostalCode   string `json:"postal_code" validate:"omitempty,max=20"`
	Country      string `json:"country" validate:"omitempty,max=80"`

	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`

	IsSuggested   bool `json:"is_suggested"`
	SuggestedRank int  `json:"suggested_rank" validate:"omitempty,min=1,max=1000"`
}

// Create adds a curated provider.
func (s *ProviderService) Create(ctx context.Context, input ProviderInput) (*models.ServiceProvider, error) {
	var category models.ServiceCategory
	err := s.db.WithContext(ctx).Take(&category, "id = ?", input.CategoryID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NewBadRequest("Unknown category")
	}
	if err != nil {
		return nil, err
	}

	provider := models.ServiceProvider{
		CategoryID:    input.CategoryID,
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Phone:         input.Phone,
		Email:         input.Email,
		Website:       input.Website,
		AddressLine1:  input.AddressLine1,
		AddressLine2:  input.AddressLine2,
		City:          input.City,
		State:         input.State,
		PostalCode:    geo.NormalizeCAPostal(input.PostalCode),
		Country:       input.Country,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		IsSuggested:   input.IsSuggested,
		SuggestedRank: input.SuggestedRank,
		IsActive:      true,
	}
	if provider.Country == "" {
		provider.Country = "CA"
	}
	if provider.SuggestedRank == 0 {
		provider.SuggestedRank = 100
	}

	if err := s.db.WithContext(ctx).Create(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// Update replaces a provider's editable fields.
func (s *ProviderService) Update(ctx context.Context, id string, input ProviderInput) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	err := s.db.WithContext(ctx).Take(&provider, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rank := input.SuggestedRank
	if rank == 0 {
		rank = 100
	}

	updates := map[string]any{
		"category_id":    input.CategoryID,
		"name":           strings.TrimSpace(input.Name),
		"description":    input.Description,
		"phone":          input.Phone,
		"email":          input.Email,
		"website":        input.Website,
		"address_line1":  input.AddressLine1,
		"address_line2":  input.AddressLine2,
		"city":           input.City,
		"state":          input.State,
		"postal_code":    geo.NormalizeCAPostal(input.PostalCode),
		"country":        input.Country,
		"latitude":       input.Latitude,
		"longitude":      input.Longitude,
		"is_suggested":   input.IsSuggested,
		"suggested_rank": rank,
	}

	if err := s.db.WithContext(ctx).Model(&provider).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// Deactivate soft-disables a provider so it no longer appears in searches.
func (s *ProviderService) Deactivate(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// TrackUsage validates the provider and records the action against it.
func (s *ProviderService) TrackUsage(ctx context.Context, providerID, action string, userID *string) (*models.ServiceProvider, error) {
	provider, err := s.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	switch action {
	case models.UsageActionView, models.UsageActionContact, models.UsageActionClickWebsite:
	default:
		return nil, errors.NewBadRequest("Unknown usage action")
	}

	if s.analytics != nil {
		input := RecordUsageInput{
			UserID:     userID,
			CategoryID: &provider.CategoryID,
			ProviderID: &provider.ID,
			Action:     action,
			City:       provider.City,
			State:      provider.State,
			PostalCode: provider.PostalCode,
		}
		if err := s.analytics.RecordUsage(ctx, input); err != nil {
			return nil, err
		}
	}

	return provider, nil
}
