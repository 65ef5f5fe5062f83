// Package blob stores video payloads in an S3-compatible object store and
// hands out short-lived signed read URLs for playback.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/vesilelab/vesilebot/core/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"log/slog"
)

// Config holds object store connection settings.
type Config struct {
	Endpoint  string `yaml:"endpoint" envconfig:"BLOB_ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"BLOB_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"BLOB_SECRET_KEY"`
	Bucket    string `yaml:"bucket" envconfig:"BLOB_BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"BLOB_USE_SSL"`
	// SignedURLTTLSeconds bounds how long playback links stay valid.
	SignedURLTTLSeconds int `yaml:"signed_url_ttl_seconds" envconfig:"BLOB_SIGNED_URL_TTL_SECONDS"`
}

// Store wraps the object store client with bucket-scoped operations.
type Store struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// New connects to the object store and verifies the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: client init: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := client.BucketExists(checkCtx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob: bucket check: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("blob: bucket %q does not exist", cfg.Bucket)
	}

	ttl := time.Duration(cfg.SignedURLTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	logger.BLOB.Info("blob connected",
		slog.String("event", "blob.connect"),
		slog.String("host", cfg.Endpoint),
		slog.String("db", cfg.Bucket),
	)
	return &Store{client: client, bucket: cfg.Bucket, ttl: ttl}, nil
}

// Put uploads an object under the given key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.BLOB.Error("upload failed",
			slog.String("event", "blob.put"),
			slog.String("locator", key),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	logger.BLOB.Debug("uploaded",
		slog.String("event", "blob.put"),
		slog.String("locator", key),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Delete removes an object; it reports false when the object was absent.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("blob: stat %s: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("blob: delete %s: %w", key, err)
	}
	logger.BLOB.Debug("deleted",
		slog.String("event", "blob.delete"),
		slog.String("locator", key),
	)
	return true, nil
}

// SignedReadURL returns a presigned GET link for the object.
func (s *Store) SignedReadURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("blob: presign %s: %w", key, err)
	}
	return u.String(), nil
}
