package main

import (
	"net/http"

	"github.com/portfolio/backend/internal/handler"
)

// routes holds everything registered on the API mux.
type routes struct {
	prefix   string
	base     *handler.Handler
	contact  *handler.ContactHandler
	messages *handler.MessageHandler
	certs    *handler.UploadHandler
	media    *handler.UploadHandler
	files    *handler.FileHandler // nil unless the local storage driver is used
	limiter  *handler.RateLimiter
	auth     func(http.Handler) http.Handler
}

func (rt routes) mux() *http.ServeMux {
	p := rt.prefix
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+p+"/health", rt.base.Health)
	mux.Handle("POST "+p+"/contact", rt.limiter.Middleware(http.HandlerFunc(rt.contact.Submit)))

	// 認証必要エンドポイント
	mux.Handle("GET "+p+"/messages", rt.auth(http.HandlerFunc(rt.messages.List)))
	mux.Handle("POST "+p+"/messages/{id}/read", rt.auth(http.HandlerFunc(rt.messages.MarkRead)))
	mux.Handle("DELETE "+p+"/messages/{id}", rt.auth(http.HandlerFunc(rt.messages.Delete)))

	mux.Handle("POST "+p+"/upload-certificate", rt.auth(http.HandlerFunc(rt.certs.Upload)))
	mux.Handle("GET "+p+"/certificate-image/{fileName}", rt.auth(http.HandlerFunc(rt.certs.SignedURL)))
	mux.Handle("POST "+p+"/upload-project-media", rt.auth(http.HandlerFunc(rt.media.Upload)))
	mux.Handle("GET "+p+"/project-media/{fileName}", rt.auth(http.HandlerFunc(rt.media.SignedURL)))

	// ローカルドライバーの署名付き URL (署名で保護されるため Bearer 不要)
	if rt.files != nil {
		mux.HandleFunc("GET "+p+"/files/{bucket}/{key...}", rt.files.Serve)
	}
	return mux
}
