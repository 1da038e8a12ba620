package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
	"github.com/feichai0017/smart-sdlc/pkg/storage/gcs"
	"github.com/feichai0017/smart-sdlc/pkg/storage/minio"
	"github.com/feichai0017/smart-sdlc/pkg/storage/s3"
)

// Storage stages uploaded documents between the API and the worker.
type Storage interface {
	// Store writes the object under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage creates the backend selected by cfg.Type.
func NewStorage(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (Storage, error) {
	switch cfg.Type {
	case config.StorageTypeS3:
		return s3.NewS3Storage(ctx, cfg.S3, log)
	case config.StorageTypeMinio:
		return minio.NewMinioStorage(ctx, cfg.Minio, log)
	case config.StorageTypeGCS:
		return gcs.NewGCSStorage(ctx, cfg.GCS, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
