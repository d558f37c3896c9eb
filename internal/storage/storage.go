package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound は指定されたオブジェクトが存在しない場合に返る
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrBucketNotFound はバケットが存在しない場合に返る
	ErrBucketNotFound = errors.New("storage: bucket not found")
	// ErrContentTypeNotAllowed はバケットの許可 MIME タイプ外の場合に返る
	ErrContentTypeNotAllowed = errors.New("storage: content type not allowed by bucket")
	// ErrCreateUnsupported はドライバがバケット作成に対応していない場合に返る
	ErrCreateUnsupported = errors.New("storage: bucket creation not supported by driver")
	ErrInvalidKey        = errors.New("storage: invalid key")
)

// BucketOptions はバケット作成時のポリシー
type BucketOptions struct {
	AllowedMIMETypes []string
	Public           bool
}

// Storage はオブジェクトストレージを抽象化するインターフェース。
// ローカルファイルシステム実装の他、S3 / OSS / COS 等に差し替え可能。
type Storage interface {
	// BucketExists はバケットの存在を確認する。
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// CreateBucket はバケットを作成する。
	CreateBucket(ctx context.Context, bucket string, opts BucketOptions) error

	// Put はオブジェクトを保存する。同名のオブジェクトは上書きされる。
	Put(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error

	// SignedURL は期限付きの取得用 URL を返す。
	// オブジェクトが存在しない場合は ErrObjectNotFound を返す。
	SignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Config selects and configures a driver.
type Config struct {
	Driver string // local | blob | oss | cos

	BaseDir       string
	FilesURL      string // absolute URL of the signed file route
	SigningSecret string

	BlobURLTemplate string

	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Open returns the Storage for cfg.Driver.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "local":
		return NewLocalStorage(cfg.BaseDir, cfg.FilesURL, cfg.SigningSecret)
	case "blob":
		return NewBlobStorage(cfg.BlobURLTemplate), nil
	case "oss":
		return NewOSSStorage(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	case "cos":
		return NewCOSStorage(cfg.Region, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// SanitizeKey removes empty, "." and ".." segments and leading slashes so a
// key can never escape its bucket.
func SanitizeKey(key string) (string, error) {
	key = strings.ReplaceAll(key, `\`, "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	clean := path.Join(out...)
	if clean == "" || clean == "." {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// contentTypeAllowed reports whether ct is in the allowlist. An empty
// allowlist allows everything.
func contentTypeAllowed(allowed []string, ct string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ct) {
			return true
		}
	}
	return false
}
