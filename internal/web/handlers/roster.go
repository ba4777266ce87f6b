package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Nenorae/PIFACE/internal/roster"
)

// RosterHandler handles roster snapshot management endpoints.
type RosterHandler struct {
	store *roster.Store
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(store *roster.Store) *RosterHandler {
	return &RosterHandler{store: store}
}

// Reload re-reads the roster snapshot from disk and swaps it in. Matching
// requests in flight keep using the roster they started with.
func (h *RosterHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Load(); err != nil {
		log.Printf("Failed to reload roster snapshot: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to reload roster snapshot")
		return
	}

	log.Printf("Roster snapshot reloaded: %d identities", h.store.Size())
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": fmt.Sprintf("embeddings reloaded: %d identities", h.store.Size()),
	})
}
