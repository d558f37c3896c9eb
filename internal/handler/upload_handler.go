package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
)

const (
	// maxUploadBody は最大の動画 (50MB) にマルチパートのオーバーヘッドを加えた上限
	maxUploadBody = 51 << 20
	// multipartMemory を超える部分は一時ファイルに書き出される
	multipartMemory = 8 << 20
)

// UploadHandler handles uploads and signed-URL lookups for one asset class.
type UploadHandler struct {
	uploadService    service.UploadService
	fileField        string // multipart field carrying the file
	idField          string // multipart field carrying the owner id
	includeMediaType bool
}

// NewCertificateHandler serves POST /upload-certificate and
// GET /certificate-image/{fileName}.
func NewCertificateHandler(svc service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: svc, fileField: "certificate", idField: "certificateId"}
}

// NewProjectMediaHandler serves POST /upload-project-media and
// GET /project-media/{fileName}. Its upload response includes mediaType.
func NewProjectMediaHandler(svc service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: svc, fileField: "media", idField: "projectId", includeMediaType: true}
}

type uploadResponse struct {
	Success   bool   `json:"success"`
	FileName  string `json:"fileName"`
	SignedURL string `json:"signedUrl"`
	MediaType string `json:"mediaType,omitempty"`
}

type signedURLResponse struct {
	Success   bool   `json:"success"`
	SignedURL string `json:"signedUrl"`
}

// Upload handles the multipart upload (bearer auth required).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorMessage(w, http.StatusBadRequest, "File too large. Maximum size is 50MB.")
			return
		}
		writeErrorMessage(w, http.StatusBadRequest, h.uploadService.Policy().MissingMessage)
		return
	}
	defer r.MultipartForm.RemoveAll()

	ownerID := r.FormValue(h.idField)

	var file *model.UploadFile
	f, header, err := r.FormFile(h.fileField)
	switch {
	case err == nil:
		defer f.Close()
		file = uploadFileFrom(f, header)
	case errors.Is(err, http.ErrMissingFile):
		// file stays nil; the service reports it as missing
	default:
		writeServiceError(w, r, err, h.uploadService.Policy().UploadFailedMessage)
		return
	}

	asset, err := h.uploadService.Upload(r.Context(), ownerID, file)
	if err != nil {
		writeServiceError(w, r, err, h.uploadService.Policy().UploadFailedMessage)
		return
	}

	resp := uploadResponse{Success: true, FileName: asset.FileName, SignedURL: asset.SignedURL}
	if h.includeMediaType {
		resp.MediaType = asset.MediaType
	}
	writeJSON(w, http.StatusOK, resp)
}

func uploadFileFrom(f multipart.File, header *multipart.FileHeader) *model.UploadFile {
	return &model.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
}

// SignedURL handles GET /.../{fileName} and returns a URL valid for one hour.
func (h *UploadHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploadService.SignedURL(r.Context(), r.PathValue("fileName"))
	if err != nil {
		writeServiceError(w, r, err, h.uploadService.Policy().NotFoundMessage)
		return
	}
	writeJSON(w, http.StatusOK, signedURLResponse{Success: true, SignedURL: u})
}
