package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/portfolio/backend/pkg/auth"
)

const bucketMetaFile = ".bucket.json"

// LocalStorage はローカルファイルシステムにファイルを保存する Storage 実装。
// 署名付き URL は HMAC で署名され、FileHandler が検証して配信する。
type LocalStorage struct {
	baseDir  string // ディスク上のルートディレクトリ (例: "./uploads")
	filesURL string // 署名付き URL のベース (例: "http://localhost:8080/api/files")
	secret   []byte
	now      func() time.Time
}

// NewLocalStorage は LocalStorage を生成する。
func NewLocalStorage(baseDir, filesURL, signingSecret string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, errors.New("storage: base_dir required for local driver")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	return &LocalStorage{
		baseDir:  baseDir,
		filesURL: strings.TrimRight(filesURL, "/"),
		secret:   auth.SecretBytes(signingSecret),
		now:      time.Now,
	}, nil
}

var _ Storage = (*LocalStorage)(nil)

type localBucketMeta struct {
	AllowedMIMETypes []string  `json:"allowed_mime_types"`
	Public           bool      `json:"public"`
	CreatedAt        time.Time `json:"created_at"`
}

func (s *LocalStorage) bucketDir(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("storage: invalid bucket name %q: %w", bucket, ErrInvalidKey)
	}
	return filepath.Join(s.baseDir, bucket), nil
}

func (s *LocalStorage) objectPath(bucket, key string) (string, string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", "", err
	}
	clean, err := SanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	if clean == bucketMetaFile {
		return "", "", ErrInvalidKey
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), clean, nil
}

func (s *LocalStorage) readMeta(bucket string) (*localBucketMeta, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, bucketMetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBucketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read bucket meta: %w", err)
	}
	var meta localBucketMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode bucket meta: %w", err)
	}
	return &meta, nil
}

func (s *LocalStorage) BucketExists(_ context.Context, bucket string) (bool, error) {
	_, err := s.readMeta(bucket)
	if errors.Is(err, ErrBucketNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) CreateBucket(_ context.Context, bucket string, opts BucketOptions) error {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	b, err := json.Marshal(localBucketMeta{
		AllowedMIMETypes: opts.AllowedMIMETypes,
		Public:           opts.Public,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("storage: encode bucket meta: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, bucketMetaFile), strings.NewReader(string(b)))
}

func (s *LocalStorage) Put(_ context.Context, bucket, key string, data io.Reader, _ int64, contentType string) error {
	meta, err := s.readMeta(bucket)
	if err != nil {
		return err
	}
	if !contentTypeAllowed(meta.AllowedMIMETypes, contentType) {
		return fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}
	dest, _, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	return writeFileAtomic(dest, data)
}

func (s *LocalStorage) SignedURL(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	dest, clean, err := s.objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(dest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrObjectNotFound
		}
		return "", fmt.Errorf("storage: stat: %w", err)
	}
	if fi.IsDir() {
		return "", ErrObjectNotFound
	}

	expires := s.now().Add(expiry)
	sig := auth.SignResource(bucket+"/"+clean, expires, s.secret)

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires.Unix(), 10))
	q.Set("signature", sig)
	return s.filesURL + "/" + url.PathEscape(bucket) + "/" + escapeKeyPath(clean) + "?" + q.Encode(), nil
}

// Open verifies a signature produced by SignedURL and opens the object.
func (s *LocalStorage) Open(bucket, key, expires, signature string) (*os.File, error) {
	dest, clean, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, auth.ErrSignatureInvalid
	}
	if err := auth.VerifyResource(bucket+"/"+clean, exp, signature, s.secret, s.now()); err != nil {
		return nil, err
	}
	f, err := os.Open(dest)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if fi, err := f.Stat(); err != nil || fi.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}
	return f, nil
}

func escapeKeyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// writeFileAtomic writes to a temp file and renames it over dest so readers
// never observe a partially written object.
func writeFileAtomic(dest string, data io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: create: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}
