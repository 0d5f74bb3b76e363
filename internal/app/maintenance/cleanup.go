// Package maintenance runs the periodic housekeeping jobs: analytics
// retention, cache expiry, and scheduled backups.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/localhq/localservices/internal/backup"
	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/services"
	"github.com/localhq/localservices/pkg/logger"
)

const defaultCleanupSchedule = "@daily"

// Cleaner owns the background housekeeping schedule.
type Cleaner struct {
	analytics *services.AnalyticsService
	cache     cache.Store
	archiver  *backup.Archiver
	uploader  *backup.Uploader

	retentionDays   int
	cleanupSchedule string
	backupSchedule  string

	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
}

// Option customises a Cleaner.
type Option func(*Cleaner)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Cleaner) { c.now = now }
}

// WithBackup enables scheduled archives. uploader may be nil for local-only
// backups.
func WithBackup(schedule string, archiver *backup.Archiver, uploader *backup.Uploader) Option {
	return func(c *Cleaner) {
		c.backupSchedule = schedule
		c.archiver = archiver
		c.uploader = uploader
	}
}

// WithCleanupSchedule overrides the cleanup cron spec.
func WithCleanupSchedule(schedule string) Option {
	return func(c *Cleaner) {
		if schedule != "" {
			c.cleanupSchedule = schedule
		}
	}
}

// NewCleaner builds a Cleaner. retentionDays bounds how long analytics
// events are kept; zero or negative disables the purge.
func NewCleaner(analytics *services.AnalyticsService, store cache.Store, retentionDays int, opts ...Option) *Cleaner {
	c := &Cleaner{
		analytics:       analytics,
		cache:           store,
		retentionDays:   retentionDays,
		cleanupSchedule: defaultCleanupSchedule,
		cron:            cron.New(cron.WithLogger(cron.DiscardLogger)),
		now:             time.Now,
		log:             logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start registers the schedules and begins running them.
func (c *Cleaner) Start(ctx context.Context) error {
	if _, err := c.cron.AddFunc(c.cleanupSchedule, func() {
		if err := c.RunCleanup(ctx); err != nil {
			c.log.Error("cleanup run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if c.backupSchedule != "" && c.archiver != nil {
		if _, err := c.cron.AddFunc(c.backupSchedule, func() {
			if err := c.RunBackup(ctx); err != nil {
				c.log.Error("scheduled backup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	c.log.Info("maintenance schedules started",
		zap.String("cleanup", c.cleanupSchedule),
		zap.String("backup", c.backupSchedule),
	)
	return nil
}

// Stop halts the schedules and waits for running jobs.
func (c *Cleaner) Stop() {
	stopCtx := c.cron.Stop()
	<-stopCtx.Done()
}

// RunCleanup purges expired cache entries and out-of-retention analytics.
// Each job runs even when another fails; errors are combined.
func (c *Cleaner) RunCleanup(ctx context.Context) error {
	var errs error

	if c.cache != nil {
		removed, err := c.cache.PurgeExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("expired cache entries purged", zap.Int64("removed", removed))
		}
	}

	if c.analytics != nil && c.retentionDays > 0 {
		cutoff := c.now().AddDate(0, 0, -c.retentionDays)
		removed, err := c.analytics.PurgeEventsBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("analytics events purged",
				zap.Int64("removed", removed),
				zap.Time("cutoff", cutoff),
			)
		}
	}

	return errs
}

// RunBackup creates one archive and uploads it when an uploader is set.
func (c *Cleaner) RunBackup(ctx context.Context) error {
	if c.archiver == nil {
		return nil
	}

	path, err := c.archiver.Run()
	if err != nil {
		return err
	}

	if c.uploader != nil {
		return c.uploader.Upload(ctx, path)
	}
	return nil
}
