package service

import (
	"context"

	"github.com/portfolio/backend/internal/model"
)

// UploadService stores one class of assets (certificates or project media).
type UploadService interface {
	// Upload validates file against the policy, stores it under
	// "{ownerID}-{epochMillis}.{ext}" and returns a signed URL valid for a year.
	Upload(ctx context.Context, ownerID string, file *model.UploadFile) (*model.StoredAsset, error)

	// SignedURL returns a URL for fileName valid for one hour.
	SignedURL(ctx context.Context, fileName string) (string, error)

	// Policy returns the policy the service enforces.
	Policy() AssetPolicy
}
