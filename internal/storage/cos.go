package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	cos "github.com/tencentyun/cos-go-sdk-v5"
)

// COSStorage は Tencent Cloud COS を使う Storage 実装。
// COS のクライアントはバケット単位なので、バケット名ごとに生成してキャッシュする。
type COSStorage struct {
	region    string
	endpoint  string
	accessKey string
	secretKey string

	mu      sync.Mutex
	clients map[string]*cos.Client
}

// NewCOSStorage は COSStorage を生成する。endpoint が空の場合は region から URL を組み立てる。
func NewCOSStorage(region, endpoint, accessKey, secretKey string) *COSStorage {
	return &COSStorage{
		region:    region,
		endpoint:  endpoint,
		accessKey: accessKey,
		secretKey: secretKey,
		clients:   make(map[string]*cos.Client),
	}
}

var _ Storage = (*COSStorage)(nil)

func (s *COSStorage) bucketURL(bucket string) (*url.URL, error) {
	if s.endpoint != "" {
		u, err := url.Parse(s.endpoint)
		if err != nil {
			return nil, err
		}
		// host にバケット名が含まれない場合は path-style
		if !strings.Contains(u.Host, bucket) {
			u.Path = "/" + bucket
		}
		return u, nil
	}
	if s.region == "" {
		return nil, fmt.Errorf("region required for cos when endpoint empty")
	}
	return url.Parse(fmt.Sprintf("https://%s.cos.%s.myqcloud.com", bucket, s.region))
}

func (s *COSStorage) client(bucket string) (*cos.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[bucket]; ok {
		return c, nil
	}
	u, err := s.bucketURL(bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: cos bucket url: %w", err)
	}
	c := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{SecretID: s.accessKey, SecretKey: s.secretKey},
	})
	s.clients[bucket] = c
	return c, nil
}

func (s *COSStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	c, err := s.client(bucket)
	if err != nil {
		return false, err
	}
	ok, err := c.Bucket.IsExist(ctx)
	if err != nil {
		return false, fmt.Errorf("storage: cos bucket exists: %w", err)
	}
	return ok, nil
}

// CreateBucket creates the bucket with a private ACL unless opts.Public.
func (s *COSStorage) CreateBucket(ctx context.Context, bucket string, opts BucketOptions) error {
	c, err := s.client(bucket)
	if err != nil {
		return err
	}
	acl := "private"
	if opts.Public {
		acl = "public-read"
	}
	if _, err := c.Bucket.Put(ctx, &cos.BucketPutOptions{XCosACL: acl}); err != nil {
		return fmt.Errorf("storage: cos create bucket: %w", err)
	}
	return nil
}

func (s *COSStorage) Put(ctx context.Context, bucket, key string, data io.Reader, _ int64, contentType string) error {
	key, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	c, err := s.client(bucket)
	if err != nil {
		return err
	}
	opt := &cos.ObjectPutOptions{}
	if contentType != "" {
		opt.ObjectPutHeaderOptions = &cos.ObjectPutHeaderOptions{ContentType: contentType}
	}
	if _, err := c.Object.Put(ctx, key, data, opt); err != nil {
		return fmt.Errorf("storage: cos put: %w", err)
	}
	return nil
}

func (s *COSStorage) SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	key, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	c, err := s.client(bucket)
	if err != nil {
		return "", err
	}
	ok, err := c.Object.IsExist(ctx, key)
	if err != nil {
		return "", fmt.Errorf("storage: cos object exists: %w", err)
	}
	if !ok {
		return "", ErrObjectNotFound
	}
	u, err := c.Object.GetPresignedURL(ctx, http.MethodGet, key, s.accessKey, s.secretKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: cos sign: %w", err)
	}
	return u.String(), nil
}
