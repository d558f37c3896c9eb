package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Health handles GET /health. When a KV connection is configured it is pinged
// and a failed ping answers 503 "unhealthy"; the edge-function version always
// answered "ok".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	now := h.now().UTC()

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			slog.Warn("health check ping failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthResponse{
				Status:    "unhealthy",
				Timestamp: now,
				Error:     "kv store unreachable",
			})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Timestamp: now})
}
