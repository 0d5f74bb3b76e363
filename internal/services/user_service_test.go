package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/pkg/errors"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "casey",
		Email:    "casey@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsAdmin)

	authed, err := svc.Authenticate(ctx, "casey", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "casey", "wrong")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidCredentials.Code, errors.FromError(err).Code)

	_, err = svc.Authenticate(ctx, "nobody", "whatever")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidCredentials.Code, errors.FromError(err).Code)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "casey", Password: "password-one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "casey", Password: "password-two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestInactiveUserCannotSignIn(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "casey", Password: "password-one"})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err = svc.Authenticate(ctx, "casey", "password-one")
	assert.Error(t, err)
}

func TestProfileRoundTrip(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "casey", Password: "password-one"})
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, profile.DefaultRadiusKm)
	assert.True(t, profile.AllowGeolocation)

	radius := 25
	geoOff := false
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{
		City:             "Toronto",
		State:            "ON",
		PostalCode:       "M5V 2T6",
		DefaultRadiusKm:  &radius,
		AllowGeolocation: &geoOff,
	})
	require.NoError(t, err)

	assert.Equal(t, "Toronto", updated.City)
	assert.Equal(t, 25, updated.DefaultRadiusKm)
	assert.False(t, updated.AllowGeolocation)
}
