package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/localhq/localservices/internal/database"
)

var dbCounter int64

// Option customises the test database setup.
type Option func(*options)

type options struct {
	autoMigrate bool
	seedDemo    bool
}

// WithAutoMigrate applies the full schema before the test runs.
func WithAutoMigrate() Option {
	return func(o *options) { o.autoMigrate = true }
}

// WithSeedData migrates and loads the demo data set.
func WithSeedData() Option {
	return func(o *options) {
		o.autoMigrate = true
		o.seedDemo = true
	}
}

// MustOpenTestDB opens an isolated in-memory SQLite database for a test and
// closes it on cleanup.
func MustOpenTestDB(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	id := atomic.AddInt64(&dbCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=1", id)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if o.autoMigrate {
		if err := database.MigrateAndEnsureDefaults(db); err != nil {
			t.Fatalf("migrate test database: %v", err)
		}
	}

	if o.seedDemo {
		if err := database.SeedDemoData(db, database.SeedOptions{}); err != nil {
			t.Fatalf("seed test database: %v", err)
		}
	}

	return db
}
