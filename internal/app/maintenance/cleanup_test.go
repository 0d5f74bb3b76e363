package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localhq/localservices/internal/backup"
	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/database/testutil"
	"github.com/localhq/localservices/internal/models"
	"github.com/localhq/localservices/internal/services"
)

func TestRunCleanupPurgesOldAnalyticsAndExpiredCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	analytics := services.NewAnalyticsService(db)
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	// A recent event survives, an old one is purged.
	require.NoError(t, analytics.RecordSearch(ctx, services.RecordSearchInput{City: "Toronto"}))
	old := models.SearchEvent{City: "Old Town"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&models.SearchEvent{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(-2, 0, 0)).Error)

	expired := models.CacheEntry{Key: "stale", Value: []byte("x"), ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, store.Set(ctx, "live", []byte("y"), time.Hour))

	cleaner := NewCleaner(analytics, store, 365)
	require.NoError(t, cleaner.RunCleanup(ctx))

	var searchCount, cacheCount int64
	require.NoError(t, db.Model(&models.SearchEvent{}).Count(&searchCount).Error)
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&cacheCount).Error)
	assert.EqualValues(t, 1, searchCount)
	assert.EqualValues(t, 1, cacheCount)
}

func TestRunCleanupRetentionDisabled(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	analytics := services.NewAnalyticsService(db)
	ctx := context.Background()

	old := models.SearchEvent{City: "Old Town"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&models.SearchEvent{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(-2, 0, 0)).Error)

	cleaner := NewCleaner(analytics, nil, 0)
	require.NoError(t, cleaner.RunCleanup(ctx))

	var count int64
	require.NoError(t, db.Model(&models.SearchEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRunBackupCreatesArchive(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "data.txt"), []byte("x"), 0o644))

	archiver := backup.NewArchiver(source, "")
	cleaner := NewCleaner(nil, nil, 0, WithBackup("@daily", archiver, nil))

	require.NoError(t, cleaner.RunBackup(context.Background()))

	entries, err := os.ReadDir(filepath.Join(source, "backup"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "local_services-backup-")
}

func TestStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	analytics := services.NewAnalyticsService(db)

	cleaner := NewCleaner(analytics, cache.NewMemoryStore(), 30,
		WithCleanupSchedule("@every 1h"))

	require.NoError(t, cleaner.Start(context.Background()))
	cleaner.Stop()
}
