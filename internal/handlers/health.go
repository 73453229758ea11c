package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineCounter reports how many users hold a realtime connection
type OnlineCounter interface {
	OnlineCount() int
}

// HealthHandler reports service health
type HealthHandler struct {
	store  Pinger
	online OnlineCounter
}

// NewHealthHandler creates a new health handler. online may be nil.
func NewHealthHandler(store Pinger, online OnlineCounter) *HealthHandler {
	return &HealthHandler{store: store, online: online}
}

// HealthResponse represents the health check body
type HealthResponse struct {
	Status string `json:"status"`
	Online int    `json:"online"`
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	resp := HealthResponse{Status: "ok"}
	if h.online != nil {
		resp.Online = h.online.OnlineCount()
	}
	respondJSON(w, http.StatusOK, resp)
}
