package services

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

// AdsService manages the gentle inline ad units.
type AdsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAdsService returns an AdsService.
func NewAdsService(db *gorm.DB) *AdsService {
	return &AdsService{db: db, now: time.Now}
}

// EligibleUnit returns the unit to render in a placement right now: enabled,
// inside its schedule window, lowest priority first. Nil when nothing
// qualifies, which renders as no ad at all.
func (s *AdsService) EligibleUnit(ctx context.Context, placement string) (*models.AdUnit, error) {
	now := s.now()

	var unit models.AdUnit
	err := s.db.WithContext(ctx).
		Where("placement = ? AND is_enabled = ?", placement, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("priority asc, created_at asc").
		Take(&unit).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListAll returns every ad unit for the admin screen.
func (s *AdsService) ListAll(ctx context.Context) ([]models.AdUnit, error) {
	var units []models.AdUnit
	err := s.db.WithContext(ctx).
		Order("placement asc, priority asc").
		Find(&units).Error
	return units, err
}

// AdUnitInput describes an ad unit create or update.
type AdUnitInput struct {
	Placement string `json:"placement" validate:"required,oneof=home_inline_1 dashboard_inline_1"`
	Headline  string `json:"headline" validate:"required,max=80"`
	Body      string `json:"body" validate:"omitempty,max=140"`
	TargetURL string `json:"target_url" validate:"omitempty,url,max=200"`

	IsEnabled bool       `json:"is_enabled"`
	Priority  int        `json:"priority" validate:"omitempty,min=1,max=1000"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

func (input AdUnitInput) validateWindow() error {
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return errors.NewBadRequest("Ad schedule window ends before it starts")
	}
	return nil
}

// Create adds an ad unit.
func (s *AdsService) Create(ctx context.Context, input AdUnitInput) (*models.AdUnit, error) {
	if err := input.validateWindow(); err != nil {
		return nil, err
	}

	unit := models.AdUnit{
		Placement: input.Placement,
		Headline:  input.Headline,
		Body:      input.Body,
		TargetURL: input.TargetURL,
		IsEnabled: input.IsEnabled,
		Priority:  input.Priority,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
	}
	if unit.Priority == 0 {
		unit.Priority = 100
	}

	if err := s.db.WithContext(ctx).Create(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// Update replaces an ad unit's fields.
func (s *AdsService) Update(ctx context.Context, id string, input AdUnitInput) (*models.AdUnit, error) {
	if err := input.validateWindow(); err != nil {
		return nil, err
	}

	var unit models.AdUnit
	err := s.db.WithContext(ctx).Take(&unit, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == 0 {
		priority = 100
	}

	updates := map[string]any{
		"placement":  input.Placement,
		"headline":   input.Headline,
		"body":       input.Body,
		"target_url": input.TargetURL,
		"is_enabled": input.IsEnabled,
		"priority":   priority,
		"starts_at":  input.StartsAt,
		"ends_at":    input.EndsAt,
	}

	if err := s.db.WithContext(ctx).Model(&unit).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// Delete removes an ad unit.
func (s *AdsService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.AdUnit{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
