package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"trendle/internal/config"
)

// MinIO stores blobs in an S3-compatible bucket. Locators are object
// keys within the configured bucket.
type MinIO struct {
	client *minio.Client
	bucket string
}

func NewMinIO(cfg *config.Config) (*MinIO, error) {
	mc := cfg.Storage.MinIO
	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s := &MinIO{client: client, bucket: mc.Bucket}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinIO) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIO) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: ContentType(name),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	return name, nil
}

func (s *MinIO) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", locator, err)
	}
	return obj, nil
}

func (s *MinIO) Presign(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, locator, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", locator, err)
	}
	return u.String(), nil
}
