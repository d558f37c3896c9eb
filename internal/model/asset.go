package model

import "io"

// Media types reported for uploaded project media.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// UploadFile is a file received from a multipart form.
type UploadFile struct {
	Name        string // original client file name
	ContentType string // declared MIME type
	Size        int64
	Body        io.Reader
}

// StoredAsset is the result of a successful upload.
type StoredAsset struct {
	FileName  string `json:"fileName"`
	SignedURL string `json:"signedUrl"`
	MediaType string `json:"mediaType,omitempty"`
}
