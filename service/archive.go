package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

// ArchiveService keeps the raw uploaded receipt images in object storage
// for audit. Config-gated; the decoded raster itself is always discarded
// after extraction.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg *config.ArchiveConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Store uploads one receipt image, keyed by the matched merchant. Returns
// the object name.
func (s *ArchiveService) Store(ctx context.Context, merchant string, data []byte) (string, error) {
	if merchant == "" {
		merchant = model.MerchantUnknown
	}
	objectName := fmt.Sprintf("%s/%s.png", merchant, uuid.New().String())

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt image: %w", err)
	}

	return objectName, nil
}
