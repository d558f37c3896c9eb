package service

import (
	"context"
	"log/slog"

	"github.com/portfolio/backend/internal/storage"
)

// BucketStatus reports what BootstrapBuckets did for one bucket.
type BucketStatus struct {
	Bucket  string
	Created bool
	Err     error
}

// BootstrapBuckets makes sure every policy's bucket exists, creating missing
// ones as private buckets restricted to the policy's MIME types. Errors are
// logged and reported per bucket, never returned.
func BootstrapBuckets(ctx context.Context, store storage.Storage, logger *slog.Logger, policies ...AssetPolicy) []BucketStatus {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]BucketStatus, 0, len(policies))
	for _, p := range policies {
		st := BucketStatus{Bucket: p.Bucket}

		exists, err := store.BucketExists(ctx, p.Bucket)
		switch {
		case err != nil:
			st.Err = err
			logger.Error("bucket existence check failed", "bucket", p.Bucket, "error", err)
		case exists:
			logger.Debug("bucket already exists", "bucket", p.Bucket)
		default:
			err := store.CreateBucket(ctx, p.Bucket, storage.BucketOptions{
				AllowedMIMETypes: p.AllowedTypes,
				Public:           false,
			})
			if err != nil {
				st.Err = err
				logger.Error("bucket creation failed", "bucket", p.Bucket, "error", err)
			} else {
				st.Created = true
				logger.Info("bucket created", "bucket", p.Bucket, "asset_class", p.Name)
			}
		}
		out = append(out, st)
	}
	return out
}
