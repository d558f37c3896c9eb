package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/portfolio/backend/internal/storage"
)

func TestBootstrapBuckets_CreatesMissingPrivateBuckets(t *testing.T) {
	created := map[string]storage.BucketOptions{}
	st := &mockStorage{
		bucketExistsFunc: func(ctx context.Context, bucket string) (bool, error) {
			return bucket == "media", nil
		},
		createBucketFunc: func(ctx context.Context, bucket string, opts storage.BucketOptions) error {
			created[bucket] = opts
			return nil
		},
	}

	res := BootstrapBuckets(context.Background(), st, discardLogger(),
		CertificatePolicy("certs"), ProjectMediaPolicy("media"))

	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if !res[0].Created || res[0].Err != nil {
		t.Errorf("certs: expected created, got %+v", res[0])
	}
	if res[1].Created || res[1].Err != nil {
		t.Errorf("media: expected untouched, got %+v", res[1])
	}
	opts, ok := created["certs"]
	if !ok {
		t.Fatal("expected certs to be created")
	}
	if opts.Public {
		t.Error("bucket must be private")
	}
	if !slices.Contains(opts.AllowedMIMETypes, "application/pdf") {
		t.Errorf("expected certificate allowlist, got %v", opts.AllowedMIMETypes)
	}
	if _, ok := created["media"]; ok {
		t.Error("existing bucket must not be recreated")
	}
}

// TestBootstrapBuckets_FailuresDoNotStop verifies one failing bucket does not
// prevent the next from being provisioned.
func TestBootstrapBuckets_FailuresDoNotStop(t *testing.T) {
	var createdMedia bool
	st := &mockStorage{
		bucketExistsFunc: func(ctx context.Context, bucket string) (bool, error) {
			if bucket == "certs" {
				return false, errors.New("permission denied")
			}
			return false, nil
		},
		createBucketFunc: func(ctx context.Context, bucket string, opts storage.BucketOptions) error {
			createdMedia = bucket == "media"
			return nil
		},
	}

	res := BootstrapBuckets(context.Background(), st, discardLogger(),
		CertificatePolicy("certs"), ProjectMediaPolicy("media"))

	if res[0].Err == nil {
		t.Error("expected certs error to be reported")
	}
	if !createdMedia || !res[1].Created {
		t.Error("expected media to be created despite certs failure")
	}
}

func TestBootstrapBuckets_CreateUnsupported(t *testing.T) {
	st := &mockStorage{
		bucketExistsFunc: func(ctx context.Context, bucket string) (bool, error) { return false, nil },
		createBucketFunc: func(ctx context.Context, bucket string, opts storage.BucketOptions) error {
			return storage.ErrCreateUnsupported
		},
	}

	res := BootstrapBuckets(context.Background(), st, nil, CertificatePolicy("certs"))
	if !errors.Is(res[0].Err, storage.ErrCreateUnsupported) {
		t.Errorf("expected ErrCreateUnsupported, got %v", res[0].Err)
	}
}

// TestBootstrapBuckets_LocalIdempotent runs twice against real local storage.
func TestBootstrapBuckets_LocalIdempotent(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/files", "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	policy := CertificatePolicy("certs")

	first := BootstrapBuckets(context.Background(), st, discardLogger(), policy)
	second := BootstrapBuckets(context.Background(), st, discardLogger(), policy)

	if !first[0].Created || first[0].Err != nil {
		t.Errorf("first run: expected created, got %+v", first[0])
	}
	if second[0].Created || second[0].Err != nil {
		t.Errorf("second run: expected no-op, got %+v", second[0])
	}
}
