package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nenorae/PIFACE/internal/database"
	"github.com/Nenorae/PIFACE/internal/database/mock"
	"github.com/Nenorae/PIFACE/internal/match"
	"github.com/Nenorae/PIFACE/internal/roster"
	"github.com/Nenorae/PIFACE/internal/session"
)

// stubExtractor returns a fixed embedding or error for every frame.
type stubExtractor struct {
	embedding []float32
	err       error
}

func (s *stubExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.embedding, nil
}

// testDeps bundles a coordinator over mock stores with a small roster.
type testDeps struct {
	coordinator *session.Coordinator
	store       *roster.Store
	matcher     *match.Matcher
	ledger      *mock.MockAttendanceLedger
	sessions    *mock.MockSessionStore
	students    *mock.MockStudentReader
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	sessions := mock.NewMockSessionStore()
	ledger := mock.NewMockAttendanceLedger()
	students := mock.NewMockStudentReader()
	students.AddStudent(database.Student{ID: 1, Name: "Budi Santoso"})
	students.AddStudent(database.Student{ID: 2, Name: "Siti Aminah"})
	ledger.SetStudentName(1, "Budi Santoso")
	ledger.SetStudentName(2, "Siti Aminah")

	store := roster.NewStore(t.TempDir() + "/roster.gob")
	store.Replace([]roster.Identity{
		{Name: "Budi Santoso", Embedding: []float32{1, 0, 0}},
		{Name: "Siti Aminah", Embedding: []float32{0, 1, 0}},
	})

	return &testDeps{
		coordinator: session.NewCoordinator(sessions, ledger, students),
		store:       store,
		matcher:     match.New(store, 0.55),
		ledger:      ledger,
		sessions:    sessions,
		students:    students,
	}
}

func (d *testDeps) mustStartSession(t *testing.T) *database.Session {
	t.Helper()
	started, err := d.coordinator.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return started
}

// testFrame renders a noisy grayscale image and JPEG-encodes it so it passes
// the upload quality gate.
func testFrame(t *testing.T) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for x := 0; x < 120; x++ {
		for y := 0; y < 120; y++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test frame: %v", err)
	}
	data := buf.Bytes()
	for len(data) < 1000 {
		data = append(data, 0)
	}
	return data
}

// frameRequest builds a multipart upload request carrying one frame.
func frameRequest(t *testing.T, frame []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(frame); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/recognize_and_attend", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
