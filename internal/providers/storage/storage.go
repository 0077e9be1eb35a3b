// Package storage archives generated documents in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/smallbiznis/brokerage/internal/config"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("document_storage_disabled")

type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"`
}

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (Object, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ScheduleKey places a policy's schedule under its insurer:
// schedules/{insurer-slug}/{policy-code}/{YYYYMMDDhhmmss}.pdf.
func ScheduleKey(insurerName, policyCode string, at time.Time) string {
	insurer := slug.Make(insurerName)
	if insurer == "" {
		insurer = "unknown"
	}
	return fmt.Sprintf("schedules/%s/%s/%s.pdf", insurer, strings.TrimSpace(policyCode), at.UTC().Format("20060102150405"))
}

// NewStore returns a disabled store when MINIO_ENDPOINT is empty.
func NewStore(cfg config.Config, log *zap.Logger) (Store, error) {
	log = log.Named("storage")
	if !cfg.Storage.Enabled() {
		log.Info("document storage disabled")
		return DisabledStore{}, nil
	}

	endpoint := strings.TrimPrefix(cfg.Storage.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Storage.Bucket, log: log}, nil
}

type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func (s *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (Object, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return Object{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("upload %s to bucket %s: %w", key, s.bucket, err)
	}
	s.log.Info("object stored", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int64("size", info.Size))
	return Object{Bucket: s.bucket, Key: key, Size: info.Size}, nil
}

func (s *MinioStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s in bucket %s: %w", key, s.bucket, err)
	}
	return u.String(), nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

type DisabledStore struct{}

func (DisabledStore) Put(context.Context, string, io.Reader, int64, string) (Object, error) {
	return Object{}, ErrDisabled
}

func (DisabledStore) PresignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}
