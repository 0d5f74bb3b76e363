// Command server runs the local services directory API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/localhq/localservices/internal/api"
	"github.com/localhq/localservices/internal/app"
	"github.com/localhq/localservices/internal/app/maintenance"
	"github.com/localhq/localservices/internal/auth"
	"github.com/localhq/localservices/internal/backup"
	"github.com/localhq/localservices/internal/cache"
	"github.com/localhq/localservices/internal/database"
	"github.com/localhq/localservices/internal/services"
	"github.com/localhq/localservices/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.Debug); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.WithModule("server")

	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if cfg.Startup.AutoMigrate {
		log.Info("running auto migration")
		if err := database.MigrateAndEnsureDefaults(db); err != nil {
			return err
		}
	}
	if cfg.Startup.AutoSeedDemo {
		log.Info("seeding demo data")
		if err := database.SeedDemoData(db, database.SeedOptions{
			AdminUsername: cfg.Startup.DemoAdminUsername,
			AdminPassword: cfg.Startup.DemoAdminPassword,
		}); err != nil {
			return err
		}
	}

	jwtService, err := auth.NewJWTService(authSecret(cfg), cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}

	cleaner, err := buildCleaner(cfg, db)
	if err != nil {
		return err
	}
	if err := cleaner.Start(ctx); err != nil {
		return err
	}
	defer cleaner.Stop()

	router := api.NewRouter(cfg, db, jwtService)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// authSecret falls back to a fixed development secret so debug instances run
// without configuration. Validate rejects the empty secret outside debug.
func authSecret(cfg *app.Config) string {
	if cfg.Auth.SecretKey != "" {
		return cfg.Auth.SecretKey
	}
	return "dev-insecure-secret"
}

// databaseConfig maps the loaded configuration onto the connection options
// for the selected driver.
func databaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	}

	return dbCfg
}

func buildCleaner(cfg *app.Config, db *gorm.DB) (*maintenance.Cleaner, error) {
	opts := []maintenance.Option{
		maintenance.WithCleanupSchedule(cfg.Maintenance.CleanupSchedule),
	}

	if cfg.Backup.Schedule != "" {
		sourceDir := cfg.Backup.SourceDir
		if sourceDir == "" {
			sourceDir = "."
		}
		archiver := backup.NewArchiver(sourceDir, "")

		var uploader *backup.Uploader
		if cfg.Backup.S3.Enabled {
			var err error
			uploader, err = backup.NewUploader(backup.UploaderConfig{
				Endpoint:  cfg.Backup.S3.Endpoint,
				AccessKey: cfg.Backup.S3.AccessKey,
				SecretKey: cfg.Backup.S3.SecretKey,
				Bucket:    cfg.Backup.S3.Bucket,
				UseSSL:    cfg.Backup.S3.UseSSL,
			})
			if err != nil {
				return nil, err
			}
		}

		opts = append(opts, maintenance.WithBackup(cfg.Backup.Schedule, archiver, uploader))
	}

	return maintenance.NewCleaner(
		services.NewAnalyticsService(db),
		cache.NewDatabaseStore(db),
		cfg.Maintenance.AnalyticsRetentionDays,
		opts...,
	), nil
}
