package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Nenorae/PIFACE/internal/constants"
	"github.com/Nenorae/PIFACE/internal/extract"
	"github.com/Nenorae/PIFACE/internal/imagecheck"
	"github.com/Nenorae/PIFACE/internal/match"
	"github.com/Nenorae/PIFACE/internal/roster"
	"github.com/Nenorae/PIFACE/internal/session"
)

// AttendanceHandler handles frame submission and the recognition pipeline.
type AttendanceHandler struct {
	coordinator *session.Coordinator
	extractor   roster.Extractor
	matcher     *match.Matcher
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(coordinator *session.Coordinator, extractor roster.Extractor, matcher *match.Matcher) *AttendanceHandler {
	return &AttendanceHandler{
		coordinator: coordinator,
		extractor:   extractor,
		matcher:     matcher,
	}
}

// recognizeResponse is the recognize_and_attend body the camera agents
// parse. SavedToDB is only present once a face was recognized.
type recognizeResponse struct {
	Message    string  `json:"message"`
	Recognized bool    `json:"recognized"`
	Name       string  `json:"name,omitempty"`
	Similarity float64 `json:"similarity"`
	SavedToDB  *bool   `json:"saved_to_db,omitempty"`
}

func boolPtr(b bool) *bool {
	return &b
}

// RecognizeAndAttend runs one camera frame through the full pipeline:
// quality gate, embedding extraction, roster match, attendance record.
func (h *AttendanceHandler) RecognizeAndAttend(w http.ResponseWriter, r *http.Request) {
	// Reject frames early when no session is open; extraction is expensive.
	if h.coordinator.Status() == nil {
		respondError(w, http.StatusBadRequest, session.ErrSessionNotOpen.Error())
		return
	}

	if err := r.ParseMultipartForm(constants.MaxFrameUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(io.LimitReader(file, constants.MaxFrameUploadSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	report, err := imagecheck.Check(frame)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is not decodable")
		return
	}
	if !report.Usable() {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "frame rejected by quality checks",
			"issues": report.Issues,
		})
		return
	}

	embedding, err := h.extractor.Extract(r.Context(), frame)
	if errors.Is(err, extract.ErrInvalidImage) {
		respondError(w, http.StatusBadRequest, "image is not decodable")
		return
	}
	if errors.Is(err, extract.ErrAllAttemptsFailed) {
		respondError(w, http.StatusInternalServerError, "no face detected in frame")
		return
	}
	if err != nil {
		log.Printf("Embedding extraction failed: %v", err)
		respondError(w, http.StatusInternalServerError, "embedding service unavailable")
		return
	}

	result := h.matcher.Match(embedding)
	if !result.Accepted {
		respondJSON(w, http.StatusOK, recognizeResponse{
			Message:    "no enrolled face above the similarity threshold",
			Recognized: false,
			Name:       result.Name,
			Similarity: result.Score,
		})
		return
	}

	record, err := h.coordinator.RecordAttendance(r.Context(), result.Name)
	if errors.Is(err, session.ErrSessionNotOpen) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, session.ErrUnknownStudent) {
		// The roster snapshot knows a face the enrollment table does not.
		log.Printf("Recognized %s but no enrolled student matches", sanitizeForLog(result.Name))
		respondJSON(w, http.StatusOK, recognizeResponse{
			Message:    "recognized name is not an enrolled student",
			Recognized: true,
			Name:       result.Name,
			Similarity: result.Score,
			SavedToDB:  boolPtr(false),
		})
		return
	}
	if err != nil {
		log.Printf("Failed to record attendance for %s: %v", sanitizeForLog(result.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to record attendance")
		return
	}

	if record.Duplicate {
		respondJSON(w, http.StatusOK, recognizeResponse{
			Message:    "already recorded in this session",
			Recognized: true,
			Name:       record.Student.Name,
			Similarity: result.Score,
			SavedToDB:  boolPtr(false),
		})
		return
	}

	log.Printf("Recorded %s in session %s (similarity %.3f)", sanitizeForLog(record.Student.Name), record.SessionID, result.Score)
	respondJSON(w, http.StatusOK, recognizeResponse{
		Message:    "attendance recorded",
		Recognized: true,
		Name:       record.Student.Name,
		Similarity: result.Score,
		SavedToDB:  boolPtr(true),
	})
}

type logEntry struct {
	StudentName string    `json:"student_name"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// RecentLog returns the latest attendance records of the active session.
func (h *AttendanceHandler) RecentLog(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.coordinator.RecentLog(r.Context(), limit)
	if errors.Is(err, session.ErrSessionNotOpen) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to list recent attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance records")
		return
	}

	entries := make([]logEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, logEntry{
			StudentName: rec.StudentName,
			RecordedAt:  rec.RecordedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"records": entries,
	})
}
