package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/sectiond/internal/server/responses"
	"git.home.luguber.info/inful/sectiond/internal/store"
)

// HealthHandlers serves the admin health endpoint.
type HealthHandlers struct {
	store     store.Store
	startTime time.Time
}

func NewHealthHandlers(st store.Store) *HealthHandlers {
	return &HealthHandlers{store: st, startTime: time.Now()}
}

// HandleHealth reports liveness plus stored content totals.
func (h *HealthHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := &responses.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Seconds(),
	}

	if count, err := h.store.Count(r.Context(), ""); err != nil {
		slog.Warn("health count failed", "error", err)
		resp.Status = "degraded"
	} else {
		resp.Sections = count
	}

	writeJSON(w, http.StatusOK, resp)
}
