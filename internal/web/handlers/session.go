package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Nenorae/PIFACE/internal/roster"
	"github.com/Nenorae/PIFACE/internal/session"
)

// SessionHandler handles the attendance session lifecycle endpoints.
type SessionHandler struct {
	coordinator *session.Coordinator
	store       *roster.Store
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(coordinator *session.Coordinator, store *roster.Store) *SessionHandler {
	return &SessionHandler{coordinator: coordinator, store: store}
}

// startSessionRequest carries the schedule slot and meeting number the
// lecturer is opening a session for. The field names are the wire contract
// the deployed control page posts.
type startSessionRequest struct {
	JadwalID    int64 `json:"jadwal_id"`
	PertemuanKe int   `json:"pertemuan_ke"`
}

// statusResponse is the status_sesi body the camera agents poll.
type statusResponse struct {
	Status           string `json:"status"`
	SesiID           string `json:"sesi_id,omitempty"`
	EmbeddingsLoaded int    `json:"embeddings_loaded"`
}

type actionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	SesiID  string `json:"sesi_id,omitempty"`
}

// Status reports whether a session is open and which one.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:           "tidak_aktif",
		EmbeddingsLoaded: h.store.Size(),
	}
	if active := h.coordinator.Status(); active != nil {
		resp.Status = "aktif"
		resp.SesiID = active.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

// Start opens a new attendance session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.JadwalID <= 0 {
		respondError(w, http.StatusBadRequest, "jadwal_id is required")
		return
	}

	started, err := h.coordinator.Start(r.Context(), req.JadwalID, req.PertemuanKe)
	if errors.Is(err, session.ErrInvalidMeetingNo) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, session.ErrSessionAlreadyOpen) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to start session: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	log.Printf("Session %s started (schedule %d, meeting %d)", started.ID, started.ScheduleID, started.MeetingNo)
	respondJSON(w, http.StatusOK, actionResponse{
		Status:  "ok",
		Message: "session started",
		SesiID:  started.ID,
	})
}

// Stop closes the active attendance session.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	finished, err := h.coordinator.Stop(r.Context())
	if errors.Is(err, session.ErrSessionNotOpen) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to stop session: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to stop session")
		return
	}

	log.Printf("Session %s finished", finished.ID)
	respondJSON(w, http.StatusOK, actionResponse{
		Status:  "ok",
		Message: "session finished",
		SesiID:  finished.ID,
	})
}
