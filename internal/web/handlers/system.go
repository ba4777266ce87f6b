package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/Nenorae/PIFACE/internal/constants"
	"github.com/Nenorae/PIFACE/internal/match"
	"github.com/Nenorae/PIFACE/internal/roster"
	"github.com/Nenorae/PIFACE/internal/session"
)

// SystemHandler reports runtime information for the kiosk status page.
type SystemHandler struct {
	coordinator *session.Coordinator
	store       *roster.Store
	matcher     *match.Matcher
	model       string
	startedAt   time.Time
}

// NewSystemHandler creates a new system info handler.
func NewSystemHandler(coordinator *session.Coordinator, store *roster.Store, matcher *match.Matcher, model string) *SystemHandler {
	if model == "" {
		model = constants.DefaultEmbeddingModel
	}
	return &SystemHandler{
		coordinator: coordinator,
		store:       store,
		matcher:     matcher,
		model:       model,
		startedAt:   time.Now(),
	}
}

// Info returns the embedding model, matching threshold, roster size and
// process stats.
func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"model":          h.model,
		"threshold":      h.matcher.Threshold(),
		"roster_size":    h.store.Size(),
		"snapshot_path":  h.store.Path(),
		"session_active": h.coordinator.Status() != nil,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	})
}
