package config

import (
	"errors"
	"fmt"
	"time"
)

type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
	StorageTypeGCS   StorageType = "gcs"
)

// StorageConfig selects where uploads are staged for asynchronous jobs.
type StorageConfig struct {
	Type      StorageType   `yaml:"type"`
	Retention time.Duration `yaml:"retention"`
	S3        S3Config      `yaml:"s3"`
	Minio     MinioConfig   `yaml:"minio"`
	GCS       GCSConfig     `yaml:"gcs"`
}

type S3Config struct {
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
}

type MinioConfig struct {
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	Endpoint   string `yaml:"endpoint"`
	UseSSL     bool   `yaml:"useSSL"`
	Region     string `yaml:"region"`
	BucketName string `yaml:"bucketName"`
}

// GCSConfig configures Google Cloud Storage. Credentials default to the
// application default credentials; Endpoint points at an emulator.
type GCSConfig struct {
	BucketName      string `yaml:"bucketName"`
	CredentialsFile string `yaml:"credentialsFile"`
	Endpoint        string `yaml:"endpoint"`
}

func (c StorageConfig) Validate() error {
	switch c.Type {
	case StorageTypeS3:
		if c.S3.BucketName == "" {
			return errors.New("AWS_S3_BUCKET_NAME is not set")
		}
	case StorageTypeMinio:
		if c.Minio.Endpoint == "" || c.Minio.BucketName == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET_NAME must be set")
		}
	case StorageTypeGCS:
		if c.GCS.BucketName == "" {
			return errors.New("GCS_BUCKET_NAME is not set")
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Type)
	}
	return nil
}

func applyStorageEnv(c *StorageConfig) {
	var storageType string
	envString(&storageType, "STORAGE_TYPE")
	if storageType != "" {
		c.Type = StorageType(storageType)
	}
	envDuration(&c.Retention, "STORAGE_RETENTION")

	envString(&c.S3.BucketName, "AWS_S3_BUCKET_NAME")
	envString(&c.S3.Region, "AWS_REGION")
	envString(&c.S3.Endpoint, "AWS_ENDPOINT")
	envString(&c.S3.AccessKey, "AWS_ACCESS_KEY")
	envString(&c.S3.SecretKey, "AWS_SECRET_KEY")

	envString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	envString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	envString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	envBool(&c.Minio.UseSSL, "MINIO_USE_SSL")
	envString(&c.Minio.Region, "MINIO_REGION")
	envString(&c.Minio.BucketName, "MINIO_BUCKET_NAME")

	envString(&c.GCS.BucketName, "GCS_BUCKET_NAME")
	envString(&c.GCS.CredentialsFile, "GCS_CREDENTIALS_FILE")
	envString(&c.GCS.Endpoint, "GCS_ENDPOINT")
}
