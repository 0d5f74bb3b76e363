package services

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

// SettingsService manages the admin-editable singleton settings rows.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService returns a SettingsService.
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// GetProviderSettings returns the provider settings row, creating it when
// absent so the first admin visit always has something to edit.
func (s *SettingsService) GetProviderSettings(ctx context.Context) (*models.ProviderSettings, error) {
	var settings models.ProviderSettings
	err := s.db.WithContext(ctx).
		Where(models.ProviderSettings{ID: 1}).
		Attrs(models.ProviderSettings{ID: 1, GoogleRegion: "CA"}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// ProviderSettingsInput carries admin changes to the provider backend.
type ProviderSettingsInput struct {
	// Backend may be OSM, GOOGLE, or empty to defer to the environment.
	Backend          string  `json:"backend" validate:"omitempty,oneof=OSM GOOGLE"`
	GoogleMapsAPIKey *string `json:"google_maps_api_key" validate:"omitempty,max=255"`
	GoogleRegion     string  `json:"google_region" validate:"omitempty,len=2"`
}

// UpdateProviderSettings stores the admin override. Changes take effect on
// the next search without a restart. Selecting GOOGLE requires a key to be
// present here or in the environment; the check against the environment key
// happens at call time, so only the obviously broken combination (explicit
// empty key with GOOGLE and no stored key) is rejected here.
func (s *SettingsService) UpdateProviderSettings(ctx context.Context, input ProviderSettingsInput, envGoogleKey string) (*models.ProviderSettings, error) {
	settings, err := s.GetProviderSettings(ctx)
	if err != nil {
		return nil, err
	}

	backend := strings.ToUpper(strings.TrimSpace(input.Backend))

	updates := map[string]any{
		"backend": backend,
	}
	if input.GoogleMapsAPIKey != nil {
		updates["google_maps_api_key"] = strings.TrimSpace(*input.GoogleMapsAPIKey)
	}
	if region := strings.ToUpper(strings.TrimSpace(input.GoogleRegion)); region != "" {
		updates["google_region"] = region
	}

	if backend == models.ProviderBackendGoogle {
		storedKey := settings.GoogleMapsAPIKey
		if input.GoogleMapsAPIKey != nil {
			storedKey = strings.TrimSpace(*input.GoogleMapsAPIKey)
		}
		if storedKey == "" && strings.TrimSpace(envGoogleKey) == "" {
			return nil, errors.ErrProviderNotConfigured.WithInternal(
				stderrors.New("GOOGLE backend requires an API key"))
		}
	}

	if err := s.db.WithContext(ctx).
		Model(&models.ProviderSettings{}).
		Where("id = ?", 1).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetProviderSettings(ctx)
}

// GetThemeSettings returns the theme row, creating defaults when absent.
func (s *SettingsService) GetThemeSettings(ctx context.Context) (*models.ThemeSettings, error) {
	var settings models.ThemeSettings
	err := s.db.WithContext(ctx).
		Where(models.ThemeSettings{ID: 1}).
		Attrs(models.ThemeSettings{
			ID:                  1,
			ColorScheme:         models.ColorSchemeMidnight,
			DarkMode:            true,
			GlassEffect:         true,
			BackgroundGradients: true,
		}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// ThemeSettingsInput carries admin theme changes.
type ThemeSettingsInput struct {
	ColorScheme         *string `json:"color_scheme" validate:"omitempty,oneof=midnight frost sunset forest"`
	DarkMode            *bool   `json:"dark_mode"`
	GlassEffect         *bool   `json:"glass_effect"`
	BackgroundGradients *bool   `json:"background_gradients"`
	CompactLayout       *bool   `json:"compact_layout"`
	SnowEffect          *bool   `json:"snow_effect"`
}

// UpdateThemeSettings applies partial theme changes.
func (s *SettingsService) UpdateThemeSettings(ctx context.Context, input ThemeSettingsInput) (*models.ThemeSettings, error) {
	if _, err := s.GetThemeSettings(ctx); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.ColorScheme != nil {
		updates["color_scheme"] = *input.ColorScheme
	}
	if input.DarkMode != nil {
		updates["dark_mode"] = *input.DarkMode
	}
	if input.GlassEffect != nil {
		updates["glass_effect"] = *input.GlassEffect
	}
	if input.BackgroundGradients != nil {
		updates["background_gradients"] = *input.BackgroundGradients
	}
	if input.CompactLayout != nil {
		updates["compact_layout"] = *input.CompactLayout
	}
	if input.SnowEffect != nil {
		updates["snow_effect"] = *input.SnowEffect
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).
			Model(&models.ThemeSettings{}).
			Where("id = ?", 1).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetThemeSettings(ctx)
}
