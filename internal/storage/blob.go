package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStorage adapts any gocloud.dev/blob provider. Each logical bucket is
// opened from a URL template such as "s3://%s?region=us-east-1".
type BlobStorage struct {
	open func(ctx context.Context, bucket string) (*blob.Bucket, error)

	mu      sync.Mutex
	buckets map[string]*blob.Bucket
}

// NewBlobStorage は URL テンプレートからバケットを開く BlobStorage を生成する。
func NewBlobStorage(urlTemplate string) *BlobStorage {
	return newBlobStorage(func(ctx context.Context, bucket string) (*blob.Bucket, error) {
		return blob.OpenBucket(ctx, fmt.Sprintf(urlTemplate, bucket))
	})
}

func newBlobStorage(open func(ctx context.Context, bucket string) (*blob.Bucket, error)) *BlobStorage {
	return &BlobStorage{open: open, buckets: make(map[string]*blob.Bucket)}
}

var _ Storage = (*BlobStorage)(nil)

func (s *BlobStorage) bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b, err := s.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("storage: open bucket %q: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

func (s *BlobStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return false, err
	}
	return b.IsAccessible(ctx)
}

// CreateBucket is not part of the portable blob API; buckets must be
// provisioned with the provider's own tooling.
func (s *BlobStorage) CreateBucket(_ context.Context, bucket string, _ BucketOptions) error {
	return fmt.Errorf("%w: %s", ErrCreateUnsupported, bucket)
}

func (s *BlobStorage) Put(ctx context.Context, bucket, key string, data io.Reader, _ int64, contentType string) error {
	key, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}

	// canceling the writer's context discards a partial upload
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.NewWriter(wctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("storage: new writer: %w", err)
	}
	if _, err := io.Copy(w, data); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close writer: %w", err)
	}
	return nil
}

func (s *BlobStorage) SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	key, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return "", err
	}
	ok, err := b.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("storage: exists: %w", err)
	}
	if !ok {
		return "", ErrObjectNotFound
	}
	u, err := b.SignedURL(ctx, key, &blob.SignedURLOptions{Expiry: expiry})
	if err != nil {
		return "", fmt.Errorf("storage: sign: %w", err)
	}
	return u, nil
}

// Close closes every opened bucket.
func (s *BlobStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, b := range s.buckets {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.buckets, name)
	}
	return firstErr
}
