package match

import (
	"math"
	"testing"

	"github.com/Nenorae/PIFACE/internal/roster"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	a := []float32{0.5, 0.3, 0.8}
	got := CosineSimilarity(a, a)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected similarity 1.0 for identical vectors, got %v", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("expected similarity 0 for orthogonal vectors, got %v", got)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	got := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
	if math.Abs(got-(-1.0)) > 1e-9 {
		t.Errorf("expected similarity -1 for opposite vectors, got %v", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.2, -0.7, 0.4, 0.1}
	b := []float32{0.9, 0.3, -0.5, 0.6}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity must be symmetric")
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("expected 0 for zero vector, got %v", got)
	}
	if got := CosineSimilarity([]float32{1, 2, 3}, []float32{0, 0, 0}); got != 0 {
		t.Errorf("expected 0 for zero vector, got %v", got)
	}
}

func TestCosineSimilarityMismatchedLengths(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %v", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("expected 0 for empty vectors, got %v", got)
	}
}

func TestCosineSimilarityBounded(t *testing.T) {
	a := []float32{1e-10, 1e-10}
	b := []float32{1e-10, 1e-10}
	got := CosineSimilarity(a, b)
	if got < -1 || got > 1 {
		t.Errorf("similarity %v outside [-1, 1]", got)
	}
}

func testStore(identities []roster.Identity) *roster.Store {
	s := roster.NewStore("")
	s.Replace(identities)
	return s
}

func TestMatchPicksBestScore(t *testing.T) {
	store := testStore([]roster.Identity{
		{Name: "Ana", Embedding: []float32{1, 0}},
		{Name: "Budi", Embedding: []float32{0, 1}},
	})
	m := New(store, 0.55)

	got := m.Match([]float32{0.95, 0.05})
	if got.Name != "Ana" {
		t.Errorf("expected best match Ana, got %q", got.Name)
	}
	if !got.Accepted {
		t.Errorf("expected score %v to pass threshold 0.55", got.Score)
	}
}

func TestMatchBelowThresholdStillReported(t *testing.T) {
	store := testStore([]roster.Identity{
		{Name: "Ana", Embedding: []float32{1, 0}},
	})
	m := New(store, 0.55)

	got := m.Match([]float32{0.4, 0.92})
	if got.Accepted {
		t.Errorf("score %v must not pass threshold", got.Score)
	}
	if got.Name != "Ana" {
		t.Errorf("near-miss must still carry the best name, got %q", got.Name)
	}
	if got.Score <= 0 {
		t.Errorf("near-miss must still carry the best score, got %v", got.Score)
	}
}

func TestMatchTieKeepsFirstSeen(t *testing.T) {
	// Two identities with identical embeddings: the first in snapshot
	// order must win.
	store := testStore([]roster.Identity{
		{Name: "Ana", Embedding: []float32{1, 1}},
		{Name: "Budi", Embedding: []float32{1, 1}},
	})
	m := New(store, 0.5)

	got := m.Match([]float32{1, 1})
	if got.Name != "Ana" {
		t.Errorf("tie must resolve to first-seen identity, got %q", got.Name)
	}
}

func TestMatchEmptyRoster(t *testing.T) {
	m := New(testStore(nil), 0.55)
	got := m.Match([]float32{1, 0})
	if got.Accepted {
		t.Error("empty roster must never accept")
	}
	if got.Name != "" {
		t.Errorf("expected empty name, got %q", got.Name)
	}
}

func TestMatchExactThresholdAccepted(t *testing.T) {
	store := testStore([]roster.Identity{
		{Name: "Ana", Embedding: []float32{1, 0}},
	})
	// Identical vector scores 1.0; threshold 1.0 is inclusive.
	m := New(store, 1.0)
	got := m.Match([]float32{1, 0})
	if !got.Accepted {
		t.Errorf("score equal to threshold must be accepted, score=%v", got.Score)
	}
}
