package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/auth"
)

// ObjectOpener opens an object after verifying its URL signature.
type ObjectOpener interface {
	Open(bucket, key, expires, signature string) (*os.File, error)
}

// FileHandler serves objects of the local storage driver through the signed
// URLs it issues.
type FileHandler struct {
	opener ObjectOpener
}

// NewFileHandler は FileHandler を生成する
func NewFileHandler(opener ObjectOpener) *FileHandler {
	return &FileHandler{opener: opener}
}

// Serve handles GET /files/{bucket}/{key...}?expires=&signature=.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := h.opener.Open(r.PathValue("bucket"), r.PathValue("key"), q.Get("expires"), q.Get("signature"))
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrSignatureExpired), errors.Is(err, auth.ErrSignatureInvalid):
		writeErrorMessage(w, http.StatusForbidden, "Invalid or expired signature")
		return
	case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, storage.ErrInvalidKey):
		writeErrorMessage(w, http.StatusNotFound, "File not found")
		return
	default:
		slog.Error("open stored file failed", "error", err, "path", r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		slog.Error("stat stored file failed", "error", err, "path", r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}
