package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/storage"
)

const (
	uploadURLExpiry = 365 * 24 * time.Hour
	fetchURLExpiry  = time.Hour
)

var errBodyTooLarge = errors.New("body exceeds declared limit")

// uploadServiceImpl is the production implementation of UploadService.
type uploadServiceImpl struct {
	store  storage.Storage
	policy AssetPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewUploadService creates an UploadService enforcing policy on store.
func NewUploadService(store storage.Storage, policy AssetPolicy, logger *slog.Logger) UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &uploadServiceImpl{
		store:  store,
		policy: policy,
		logger: logger.With("asset_class", policy.Name),
		now:    time.Now,
	}
}

func (s *uploadServiceImpl) Policy() AssetPolicy { return s.policy }

func (s *uploadServiceImpl) Upload(ctx context.Context, ownerID string, file *model.UploadFile) (*model.StoredAsset, error) {
	ownerID = strings.TrimSpace(ownerID)
	if file == nil || file.Body == nil || ownerID == "" {
		return nil, newError(ErrValidation, s.policy.MissingMessage, nil)
	}
	if !s.policy.Allows(file.ContentType) {
		return nil, newError(ErrUnsupportedType, s.policy.unsupportedMessage(), nil)
	}
	limit := s.policy.MaxSize(file.ContentType)
	if file.Size > limit {
		return nil, newError(ErrPayloadTooLarge, s.policy.tooLargeMessage(file.ContentType), nil)
	}

	fileName := assetFileName(ownerID, file.Name, s.now())
	body := &limitReader{r: file.Body, remaining: limit}

	if err := s.store.Put(ctx, s.policy.Bucket, fileName, body, file.Size, file.ContentType); err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			return nil, newError(ErrPayloadTooLarge, s.policy.tooLargeMessage(file.ContentType), nil)
		case errors.Is(err, storage.ErrContentTypeNotAllowed):
			return nil, newError(ErrUnsupportedType, s.policy.unsupportedMessage(), err)
		default:
			return nil, newError(ErrStorage, s.policy.UploadFailedMessage, err)
		}
	}

	// the object is stored at this point; a signing failure only loses the URL
	signed, err := s.store.SignedURL(ctx, s.policy.Bucket, fileName, uploadURLExpiry)
	if err != nil {
		s.logger.Warn("signed url after upload failed", "error", err, "file_name", fileName)
		signed = ""
	}

	s.logger.Info("asset uploaded",
		"file_name", fileName,
		"content_type", file.ContentType,
		"size", file.Size,
	)
	return &model.StoredAsset{
		FileName:  fileName,
		SignedURL: signed,
		MediaType: MediaTypeOf(file.ContentType),
	}, nil
}

func (s *uploadServiceImpl) SignedURL(ctx context.Context, fileName string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", newError(ErrValidation, "File name required", nil)
	}
	u, err := s.store.SignedURL(ctx, s.policy.Bucket, fileName, fetchURLExpiry)
	if err != nil {
		return "", newError(ErrNotFound, s.policy.NotFoundMessage, err)
	}
	return u, nil
}

// assetFileName builds "{ownerID}-{epochMillis}.{ext}". ext is the text after
// the last dot of the original name, or the whole base name when it has no
// dot. Path separators are replaced so the result is a single key segment.
func assetFileName(ownerID, original string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := base
	if i := strings.LastIndex(base, "."); i >= 0 {
		ext = base[i+1:]
	}
	owner := strings.NewReplacer("/", "_", `\`, "_").Replace(ownerID)
	return fmt.Sprintf("%s-%d.%s", owner, now.UnixMilli(), ext)
}

// limitReader fails once more than remaining bytes have been read, guarding
// against bodies larger than their declared size.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errBodyTooLarge
	}
	return n, err
}
