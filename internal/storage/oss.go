package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStorage は Alibaba Cloud OSS を使う Storage 実装。
type OSSStorage struct {
	client *oss.Client
}

// NewOSSStorage は OSS クライアントを生成する。
func NewOSSStorage(endpoint, accessKey, secretKey string) (*OSSStorage, error) {
	cli, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: oss client: %w", err)
	}
	return &OSSStorage{client: cli}, nil
}

var _ Storage = (*OSSStorage)(nil)

func (s *OSSStorage) BucketExists(_ context.Context, bucket string) (bool, error) {
	ok, err := s.client.IsBucketExist(bucket)
	if err != nil {
		return false, fmt.Errorf("storage: oss bucket exists: %w", err)
	}
	return ok, nil
}

// CreateBucket creates the bucket with a private ACL unless opts.Public.
// OSS has no per-bucket MIME allowlist; uploads are filtered by the caller.
func (s *OSSStorage) CreateBucket(_ context.Context, bucket string, opts BucketOptions) error {
	acl := oss.ACLPrivate
	if opts.Public {
		acl = oss.ACLPublicRead
	}
	if err := s.client.CreateBucket(bucket, oss.ACL(acl)); err != nil {
		return fmt.Errorf("storage: oss create bucket: %w", err)
	}
	return nil
}

func (s *OSSStorage) Put(_ context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	key, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	bk, err := s.client.Bucket(bucket)
	if err != nil {
		return fmt.Errorf("storage: oss bucket: %w", err)
	}
	opts := []oss.Option{}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}
	if err := bk.PutObject(key, data, opts...); err != nil {
		return fmt.Errorf("storage: oss put: %w", err)
	}
	return nil
}

func (s *OSSStorage) SignedURL(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	key, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	bk, err := s.client.Bucket(bucket)
	if err != nil {
		return "", fmt.Errorf("storage: oss bucket: %w", err)
	}
	ok, err := bk.IsObjectExist(key)
	if err != nil {
		return "", fmt.Errorf("storage: oss object exists: %w", err)
	}
	if !ok {
		return "", ErrObjectNotFound
	}
	return bk.SignURL(key, oss.HTTPGet, int64(expiry/time.Second))
}
