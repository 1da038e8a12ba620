package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/feichai0017/smart-sdlc/config"
	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

type GCSStorage struct {
	client *gcstorage.Client
	bucket *gcstorage.BucketHandle
	name   string
	logger logger.Logger
}

// NewGCSStorage connects with application default credentials unless a
// credentials file or an emulator endpoint is configured.
func NewGCSStorage(ctx context.Context, cfg config.GCSConfig, log logger.Logger) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	bucket := client.Bucket(cfg.BucketName)
	if _, err := bucket.Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: bucket,
		name:   cfg.BucketName,
		logger: log.Named("gcs"),
	}, nil
}

func (s *GCSStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		s.logger.Error("Failed to store object in GCS",
			logger.String("bucket", s.name),
			logger.String("key", key),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}
	return key, nil
}

func (s *GCSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		s.logger.Error("Failed to get object from GCS",
			logger.String("bucket", s.name),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return r, nil
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *GCSStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	it := s.bucket.Objects(ctx, &gcstorage.Query{Prefix: "uploads/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		if !attrs.Updated.Before(threshold) {
			continue
		}
		if err := s.Delete(ctx, attrs.Name); err != nil {
			continue
		}
		s.logger.Info("Deleted expired upload",
			logger.String("key", attrs.Name),
			logger.Time("lastModified", attrs.Updated),
		)
	}
	return nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}
