package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, store.Delete(ctx, "k"))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fast", []byte("x"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)

	_, found, err := store.Get(ctx, "fast")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "gone", []byte("x"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
}

func TestDatabaseStoreRoundTrip(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "geo:test", []byte(`{"lat":45.4}`), 10*time.Minute))

	value, found, err := store.Get(ctx, "geo:test")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"lat":45.4}`, string(value))

	// Overwrite keeps a single row.
	require.NoError(t, store.Set(ctx, "geo:test", []byte(`{"lat":43.7}`), 10*time.Minute))
	var count int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	value, found, err = store.Get(ctx, "geo:test")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"lat":43.7}`, string(value))
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	expired := models.CacheEntry{
		Key:       "stale",
		Value:     []byte("x"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, store.Set(ctx, "live", []byte("y"), time.Hour))

	_, found, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, removed, int64(1))

	_, found, err = store.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, found)
}
