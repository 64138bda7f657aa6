package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"carebook/internal/config"
)

// minioAvatars implements AvatarStore on MinIO or any S3-compatible endpoint.
// It is safe for concurrent use.
type minioAvatars struct {
	client *minio.Client
	bucket string
}

func validateMinIO(cfg config.MinIOConfig) error {
	var errs []error
	if cfg.Endpoint == "" {
		errs = append(errs, errors.New("minio endpoint is required"))
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		errs = append(errs, errors.New("minio credentials are required"))
	}
	if cfg.Bucket == "" {
		errs = append(errs, errors.New("minio bucket is required"))
	}
	return errors.Join(errs...)
}

// NewMinIO connects to the object store and makes sure the avatar bucket exists.
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (AvatarStore, error) {
	if err := validateMinIO(cfg); err != nil {
		return nil, err
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check avatar bucket: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create avatar bucket: %w", err)
		}
	}

	return &minioAvatars{client: cli, bucket: cfg.Bucket}, nil
}

func (m *minioAvatars) Save(ctx context.Context, p Picture) (Stored, error) {
	if p.Owner == "" {
		return Stored{}, errors.New("picture owner is required")
	}
	key := ObjectKey(p.Owner, p.Extension)
	info, err := m.client.PutObject(ctx, m.bucket, key, p.Body, p.Size, minio.PutObjectOptions{
		ContentType:  p.ContentType,
		CacheControl: CacheControl,
		UserMetadata: map[string]string{"original-filename": p.Filename},
	})
	if err != nil {
		return Stored{}, err
	}
	modified := info.LastModified
	if modified.IsZero() {
		modified = time.Now()
	}
	return Stored{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  p.ContentType,
		LastModified: modified,
	}, nil
}

func (m *minioAvatars) Open(ctx context.Context, key string) (io.ReadCloser, Stored, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Stored{}, err
	}
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Stored{}, err
	}
	return obj, Stored{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
	}, nil
}

func (m *minioAvatars) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioAvatars) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	params.Set("response-cache-control", CacheControl)
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
