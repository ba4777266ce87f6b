package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionStatusNoSession(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("GET", "/api/status_sesi", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp statusResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "tidak_aktif" {
		t.Errorf("expected tidak_aktif, got %q", resp.Status)
	}
	if resp.SesiID != "" {
		t.Errorf("expected empty session ID, got %q", resp.SesiID)
	}
	if resp.EmbeddingsLoaded != 2 {
		t.Errorf("expected 2 loaded embeddings, got %d", resp.EmbeddingsLoaded)
	}
}

func TestSessionStatusActive(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)
	started := deps.mustStartSession(t)

	req := httptest.NewRequest("GET", "/api/status_sesi", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp statusResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "aktif" {
		t.Errorf("expected aktif, got %q", resp.Status)
	}
	if resp.SesiID != started.ID {
		t.Errorf("expected session %s, got %s", started.ID, resp.SesiID)
	}
}

func TestSessionStart(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("POST", "/api/mulai_sesi", strings.NewReader(`{"jadwal_id": 5, "pertemuan_ke": 2}`))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp actionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.SesiID == "" {
		t.Error("expected a session ID")
	}

	active := deps.coordinator.Status()
	if active == nil || active.ScheduleID != 5 || active.MeetingNo != 2 {
		t.Errorf("unexpected active session: %+v", active)
	}
}

func TestSessionStartInvalidBody(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("POST", "/api/mulai_sesi", strings.NewReader("not json"))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}

func TestSessionStartMissingSchedule(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("POST", "/api/mulai_sesi", strings.NewReader(`{"pertemuan_ke": 1}`))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSessionStartInvalidMeetingNo(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("POST", "/api/mulai_sesi", strings.NewReader(`{"jadwal_id": 1, "pertemuan_ke": 99}`))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSessionStartWhileOpen(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)
	deps.mustStartSession(t)

	req := httptest.NewRequest("POST", "/api/mulai_sesi", strings.NewReader(`{"jadwal_id": 1, "pertemuan_ke": 2}`))
	recorder := httptest.NewRecorder()
	handler.Start(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestSessionStop(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)
	started := deps.mustStartSession(t)

	req := httptest.NewRequest("POST", "/api/selesai_sesi", nil)
	recorder := httptest.NewRecorder()
	handler.Stop(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp actionResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.SesiID != started.ID {
		t.Errorf("expected session %s, got %s", started.ID, resp.SesiID)
	}
	if deps.coordinator.Status() != nil {
		t.Error("expected no active session after stop")
	}
}

func TestSessionStopWithoutSession(t *testing.T) {
	deps := newTestDeps(t)
	handler := NewSessionHandler(deps.coordinator, deps.store)

	req := httptest.NewRequest("POST", "/api/selesai_sesi", nil)
	recorder := httptest.NewRecorder()
	handler.Stop(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}
