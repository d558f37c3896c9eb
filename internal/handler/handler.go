package handler

import (
	"net/http"
	"time"

	"github.com/portfolio/backend/internal/repository"
)

// Handler serves the unauthenticated infrastructure endpoints (health, CORS).
type Handler struct {
	db  repository.DB // nil when the KV backend has no connection to check
	now func() time.Time
}

func New(db repository.DB) *Handler {
	return &Handler{db: db, now: time.Now}
}

// CORS はすべてのオリジンを許可する。認証は Cookie ではなく Bearer ヘッダーで行う。
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
