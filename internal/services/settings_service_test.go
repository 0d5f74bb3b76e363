package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

func TestProviderSettingsSwitchToGoogleRequiresKey(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewSettingsService(db)
	ctx := context.Background()

	_, err := svc.UpdateProviderSettings(ctx, ProviderSettingsInput{Backend: "GOOGLE"}, "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrProviderNotConfigured.Code, errors.FromError(err).Code)

	// An environment key satisfies the requirement.
	settings, err := svc.UpdateProviderSettings(ctx, ProviderSettingsInput{Backend: "GOOGLE"}, "env-key")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderBackendGoogle, settings.Backend)

	// So does a stored key.
	key := "stored-key"
	settings, err = svc.UpdateProviderSettings(ctx, ProviderSettingsInput{
		Backend:          "GOOGLE",
		GoogleMapsAPIKey: &key,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "stored-key", settings.GoogleMapsAPIKey)
}

func TestProviderSettingsClearBackendDefersToEnvironment(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewSettingsService(db)
	ctx := context.Background()

	key := "k"
	_, err := svc.UpdateProviderSettings(ctx, ProviderSettingsInput{Backend: "GOOGLE", GoogleMapsAPIKey: &key}, "")
	require.NoError(t, err)

	settings, err := svc.UpdateProviderSettings(ctx, ProviderSettingsInput{Backend: ""}, "")
	require.NoError(t, err)
	assert.Empty(t, settings.Backend)
	// Clearing the backend keeps the stored key for later.
	assert.Equal(t, "k", settings.GoogleMapsAPIKey)
}

func TestThemeSettingsPartialUpdate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewSettingsService(db)
	ctx := context.Background()

	initial, err := svc.GetThemeSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ColorSchemeMidnight, initial.ColorScheme)
	assert.True(t, initial.DarkMode)

	scheme := models.ColorSchemeFrost
	snow := true
	updated, err := svc.UpdateThemeSettings(ctx, ThemeSettingsInput{
		ColorScheme: &scheme,
		SnowEffect:  &snow,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ColorSchemeFrost, updated.ColorScheme)
	assert.True(t, updated.SnowEffect)
	// Untouched fields keep their values.
	assert.True(t, updated.DarkMode)
	assert.True(t, updated.GlassEffect)
}
