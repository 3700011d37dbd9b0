package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/andresuchdata/stockwatch/internal/config"
)

// MinioStore keeps one <prefix>/<key>.json object per key in an
// S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects and creates the bucket when it does not exist.
func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("minio credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("minio bucket must be provided")
	}

	endpoint, secure := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check failed: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("minio make bucket failed: %w", err)
		}
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// normalizeEndpoint strips a URL scheme; an explicit scheme decides TLS.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), useSSL
	}
}

func (m *MinioStore) objectKey(key string) string {
	if m.prefix == "" {
		return key + ".json"
	}
	return path.Join(m.prefix, key+".json")
}

func (m *MinioStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	object, err := m.client.GetObject(ctx, m.bucket, m.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("minio get failed: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("minio read failed: %w", err)
	}
	return data, true, nil
}

func (m *MinioStore) Save(ctx context.Context, entries map[string][]byte) error {
	keys, err := orderedKeys(entries)
	if err != nil {
		return err
	}

	for _, key := range keys {
		value := entries[key]
		_, err := m.client.PutObject(ctx, m.bucket, m.objectKey(key), bytes.NewReader(value), int64(len(value)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			return fmt.Errorf("minio put %s failed: %w", key, err)
		}
	}
	return nil
}

func (m *MinioStore) Close() error {
	return nil
}

var _ Store = (*MinioStore)(nil)
