package backup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/localhq/localservices/pkg/logger"
)

// UploaderConfig describes an S3-compatible archive destination.
type UploaderConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Uploader ships archives to S3-compatible storage.
type Uploader struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewUploader builds an Uploader.
func NewUploader(cfg UploaderConfig) (*Uploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("backup: upload endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("backup: s3 client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		log:    logger.WithModule("backup.upload"),
	}, nil
}

// Upload sends an archive to the bucket under its base name.
func (u *Uploader) Upload(ctx context.Context, archivePath string) error {
	object := filepath.Base(archivePath)

	info, err := u.client.FPutObject(ctx, u.bucket, object, archivePath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("backup: upload %s: %w", object, err)
	}

	u.log.Info("archive uploaded",
		zap.String("bucket", u.bucket),
		zap.String("object", object),
		zap.Int64("size", info.Size),
	)
	return nil
}
