// Command backup creates a timestamped zip archive of the project tree,
// mirroring the scheduled in-process backup for one-off runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/localhq/localservices/internal/app"
	"github.com/localhq/localservices/internal/backup"
	"github.com/localhq/localservices/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "backup:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.Debug); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.WithModule("backup")

	sourceDir := cfg.Backup.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}

	archiver := backup.NewArchiver(sourceDir, "")
	path, err := archiver.Run()
	if err != nil {
		return err
	}
	log.Info("archive created", zap.String("path", path))

	if cfg.Backup.S3.Enabled {
		uploader, err := backup.NewUploader(backup.UploaderConfig{
			Endpoint:  cfg.Backup.S3.Endpoint,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
			Bucket:    cfg.Backup.S3.Bucket,
			UseSSL:    cfg.Backup.S3.UseSSL,
		})
		if err != nil {
			return err
		}
		if err := uploader.Upload(context.Background(), path); err != nil {
			return err
		}
	}

	return nil
}
