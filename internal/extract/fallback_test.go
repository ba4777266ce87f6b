package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// scriptedClient fails attempts until a configured detector/mode is reached.
type scriptedClient struct {
	succeedOn Config
	attempts  []Config
	embedding []float32
}

func (s *scriptedClient) Represent(ctx context.Context, imageData []byte, cfg Config) ([]float32, error) {
	s.attempts = append(s.attempts, cfg)
	if cfg == s.succeedOn {
		return s.embedding, nil
	}
	return nil, errors.New("no face detected")
}

func TestChainPrimarySucceedsFirst(t *testing.T) {
	client := &scriptedClient{
		succeedOn: Config{Detector: "opencv", EnforceDetection: true},
		embedding: []float32{1, 2, 3},
	}
	chain := newChain(client, "", nil)

	got, err := chain.Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("unexpected embedding %v", got)
	}
	if len(client.attempts) != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", len(client.attempts))
	}
}

func TestChainFallsBackInOrder(t *testing.T) {
	client := &scriptedClient{
		succeedOn: Config{Detector: "mtcnn", EnforceDetection: true},
		embedding: []float32{1},
	}
	chain := newChain(client, "", nil)

	if _, err := chain.Extract(context.Background(), []byte("img")); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	want := []Config{
		{Detector: "opencv", EnforceDetection: true},
		{Detector: "retinaface", EnforceDetection: true},
		{Detector: "mtcnn", EnforceDetection: true},
	}
	if len(client.attempts) != len(want) {
		t.Fatalf("expected %d attempts, got %d", len(want), len(client.attempts))
	}
	for i, cfg := range want {
		if client.attempts[i] != cfg {
			t.Errorf("attempt %d: expected %+v, got %+v", i, cfg, client.attempts[i])
		}
	}
}

func TestChainPermissiveRetryIsLast(t *testing.T) {
	client := &scriptedClient{
		succeedOn: Config{Detector: "opencv", EnforceDetection: false},
		embedding: []float32{1},
	}
	chain := newChain(client, "", nil)

	if _, err := chain.Extract(context.Background(), []byte("img")); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	last := client.attempts[len(client.attempts)-1]
	if last.Detector != "opencv" || last.EnforceDetection {
		t.Errorf("last attempt must be permissive primary, got %+v", last)
	}
	// Strict attempts for primary + all fallbacks come first.
	if len(client.attempts) != len(DefaultFallbackDetectors)+2 {
		t.Errorf("expected %d attempts, got %d", len(DefaultFallbackDetectors)+2, len(client.attempts))
	}
}

func TestChainAllAttemptsFailed(t *testing.T) {
	client := &scriptedClient{
		succeedOn: Config{Detector: "never"},
	}
	chain := newChain(client, "", nil)

	_, err := chain.Extract(context.Background(), []byte("img"))
	if !errors.Is(err, ErrAllAttemptsFailed) {
		t.Fatalf("expected ErrAllAttemptsFailed, got %v", err)
	}
}

func TestChainRejectsEmptyImage(t *testing.T) {
	client := &scriptedClient{}
	chain := newChain(client, "", nil)

	_, err := chain.Extract(context.Background(), nil)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if len(client.attempts) != 0 {
		t.Errorf("no service attempts should run for empty input")
	}
}

func TestChainStopsOnContextCancel(t *testing.T) {
	client := &scriptedClient{succeedOn: Config{Detector: "never"}}
	chain := newChain(client, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Extract(ctx, []byte("img"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClientRepresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.FormValue("detector") != "opencv" {
			http.Error(w, "wrong detector", http.StatusBadRequest)
			return
		}
		if r.FormValue("enforce_detection") != "true" {
			http.Error(w, "wrong enforce flag", http.StatusBadRequest)
			return
		}
		if _, _, err := r.FormFile("image"); err != nil {
			http.Error(w, "missing image", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dim":       3,
			"embedding": []float32{0.1, 0.2, 0.3},
			"model":     "vggface",
			"detector":  "opencv",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "vggface")
	got, err := client.Represent(context.Background(), []byte("img"), Config{Detector: "opencv", EnforceDetection: true})
	if err != nil {
		t.Fatalf("represent failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("unexpected embedding %v", got)
	}
}

func TestClientRepresentServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "face could not be detected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Represent(context.Background(), []byte("img"), Config{Detector: "opencv", EnforceDetection: true})
	if err == nil {
		t.Fatal("expected error from non-200 response")
	}
}
