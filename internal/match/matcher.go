// Package match decides which enrolled identity a live face embedding
// belongs to, if any.
package match

import "github.com/Nenorae/PIFACE/internal/roster"

// Result describes the best-scoring identity for a live embedding.
// Name and Score are populated even when Accepted is false so callers can
// report near-misses for threshold tuning.
type Result struct {
	Name     string
	Score    float64
	Accepted bool
}

// Matcher scores live embeddings against a roster store.
type Matcher struct {
	store     *roster.Store
	threshold float64
}

// New creates a matcher with the given similarity threshold.
func New(store *roster.Store, threshold float64) *Matcher {
	return &Matcher{store: store, threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match scans every identity in the current roster snapshot and returns the
// highest-scoring one. Ties keep the first identity seen, which is
// deterministic because snapshots preserve load order. The zero Result is
// returned for an empty roster.
func (m *Matcher) Match(live []float32) Result {
	best := Result{}
	for _, id := range m.store.Snapshot() {
		score := CosineSimilarity(live, id.Embedding)
		if best.Name == "" || score > best.Score {
			best.Name = id.Name
			best.Score = score
		}
	}
	best.Accepted = best.Name != "" && best.Score >= m.threshold
	return best
}
