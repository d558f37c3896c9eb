package service

import (
	"fmt"
	"strings"

	"github.com/portfolio/backend/internal/model"
)

const (
	mb           = 1 << 20
	maxImageSize = 10 * mb
	maxVideoSize = 50 * mb
)

// AssetPolicy describes what one class of uploads may contain and where it
// is stored.
type AssetPolicy struct {
	Name         string // used in logs
	Bucket       string
	AllowedTypes []string
	// MaxImageBytes applies to every non-video type.
	MaxImageBytes int64
	MaxVideoBytes int64

	// client-facing wording
	TypeList            string // "JPEG, PNG, WebP, and PDF"
	MissingMessage      string
	UploadFailedMessage string
	NotFoundMessage     string
}

// CertificatePolicy accepts images and PDFs up to 10MB.
func CertificatePolicy(bucket string) AssetPolicy {
	return AssetPolicy{
		Name:                "certificate",
		Bucket:              bucket,
		AllowedTypes:        []string{"image/jpeg", "image/png", "image/webp", "application/pdf"},
		MaxImageBytes:       maxImageSize,
		MaxVideoBytes:       maxImageSize,
		TypeList:            "JPEG, PNG, WebP, and PDF",
		MissingMessage:      "Missing file or certificate ID",
		UploadFailedMessage: "Failed to upload certificate",
		NotFoundMessage:     "Failed to get certificate image",
	}
}

// ProjectMediaPolicy accepts images up to 10MB and videos up to 50MB.
func ProjectMediaPolicy(bucket string) AssetPolicy {
	return AssetPolicy{
		Name:   "project-media",
		Bucket: bucket,
		AllowedTypes: []string{
			"image/jpeg", "image/png", "image/webp",
			"video/mp4", "video/webm", "video/quicktime",
		},
		MaxImageBytes:       maxImageSize,
		MaxVideoBytes:       maxVideoSize,
		TypeList:            "JPEG, PNG, WebP, MP4, WebM, and QuickTime",
		MissingMessage:      "Missing file or project ID",
		UploadFailedMessage: "Failed to upload project media",
		NotFoundMessage:     "Failed to get project media",
	}
}

// Allows reports whether contentType is accepted. The comparison is exact,
// matching what object stores do with their MIME allowlists.
func (p AssetPolicy) Allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// MaxSize returns the byte limit for contentType.
func (p AssetPolicy) MaxSize(contentType string) int64 {
	if isVideo(contentType) {
		return p.MaxVideoBytes
	}
	return p.MaxImageBytes
}

func (p AssetPolicy) unsupportedMessage() string {
	return fmt.Sprintf("Invalid file type. Only %s are allowed.", p.TypeList)
}

func (p AssetPolicy) tooLargeMessage(contentType string) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", p.MaxSize(contentType)/mb)
}

func isVideo(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}

// MediaTypeOf returns "video" for video/* types and "image" otherwise.
func MediaTypeOf(contentType string) string {
	if isVideo(contentType) {
		return model.MediaTypeVideo
	}
	return model.MediaTypeImage
}
