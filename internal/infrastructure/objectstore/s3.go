// Package objectstore talks to the S3 compatible bucket that durably keeps
// receipt images and voice recordings.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/configs"
	"github.com/avatarctic/ledger/internal/core/ports"
)

// maxPresignExpiry is the SigV4 limit on presigned URL lifetime.
const maxPresignExpiry = 7 * 24 * time.Hour

type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logrus.Logger
}

var _ ports.ObjectStorage = (*S3Storage)(nil)

// NewS3Storage builds a client for cfg. The endpoint may be a bare host or a
// URL; an http scheme disables TLS.
func NewS3Storage(cfg *configs.StorageConfig, logger *logrus.Logger) (*S3Storage, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("object storage endpoint and bucket are required")
	}
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &S3Storage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// PutObject uploads data under key and returns the stored key.
func (s *S3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).WithError(err).Error("objectstore: put failed")
		}
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return info.Key, nil
}

// PresignedURL signs a GET for key. Expiry is clamped to the SigV4 maximum.
func (s *S3Storage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 || expiry > maxPresignExpiry {
		expiry = maxPresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Ping verifies the bucket is reachable.
func (s *S3Storage) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func parseEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid bucket endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid bucket endpoint %q", endpoint)
	}
	return u.Host, u.Scheme != "http", nil
}
