package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/pkg/errors"
)

func TestSelectorDefaultsToOSM(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	selector := NewSelector(db, SelectorConfig{})

	ctx := context.Background()
	assert.Equal(t, models.ProviderBackendOSM, selector.EffectiveBackend(ctx))

	backend, err := selector.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OSM", backend.Name())
}

func TestSelectorGoogleWithoutKeyIsConfigError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	selector := NewSelector(db, SelectorConfig{DefaultBackend: "GOOGLE"})

	_, err := selector.Resolve(context.Background())
	require.Error(t, err)

	appErr := errors.FromError(err)
	assert.Equal(t, errors.ErrProviderNotConfigured.Code, appErr.Code)
}

func TestSelectorGoogleFromEnvironmentWithKey(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	selector := NewSelector(db, SelectorConfig{
		DefaultBackend: "GOOGLE",
		Google:         GoogleConfig{APIKey: "test-key", Region: "CA"},
	})

	ctx := context.Background()
	assert.Equal(t, models.ProviderBackendGoogle, selector.EffectiveBackend(ctx))

	backend, err := selector.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GOOGLE", backend.Name())
}

func TestSelectorAdminSettingOverridesEnvironment(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, db.Model(&models.ProviderSettings{}).
		Where("id = ?", 1).
		Updates(map[string]any{
			"backend":             models.ProviderBackendGoogle,
			"google_maps_api_key": "admin-key",
		}).Error)

	selector := NewSelector(db, SelectorConfig{DefaultBackend: "OSM"})

	ctx := context.Background()
	assert.Equal(t, models.ProviderBackendGoogle, selector.EffectiveBackend(ctx))

	backend, err := selector.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GOOGLE", backend.Name())
}

func TestSelectorAdminRowClearedFallsBackToEnvironment(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	selector := NewSelector(db, SelectorConfig{
		DefaultBackend: "GOOGLE",
		Google:         GoogleConfig{APIKey: "env-key"},
	})

	ctx := context.Background()

	// Admin explicitly pins OSM.
	require.NoError(t, db.Model(&models.ProviderSettings{}).
		Where("id = ?", 1).
		Update("backend", models.ProviderBackendOSM).Error)
	assert.Equal(t, models.ProviderBackendOSM, selector.EffectiveBackend(ctx))

	// Clearing the admin value reverts to the environment default, without
	// restarting anything.
	require.NoError(t, db.Model(&models.ProviderSettings{}).
		Where("id = ?", 1).
		Update("backend", "").Error)
	assert.Equal(t, models.ProviderBackendGoogle, selector.EffectiveBackend(ctx))
}

func TestSelectorUnknownBackendIsConfigError(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, db.Model(&models.ProviderSettings{}).
		Where("id = ?", 1).
		Update("backend", "BING").Error)

	selector := NewSelector(db, SelectorConfig{})
	_, err := selector.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrProviderNotConfigured.Code, errors.FromError(err).Code)
}
