package roster

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Extractor turns raw image bytes into a face embedding. Satisfied by the
// extract package's fallback chain.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte) ([]float32, error)
}

// BuildStats summarizes a roster build run.
type BuildStats struct {
	People        int
	ImagesTotal   int
	ImagesFailed  int
	PeopleSkipped int
}

// Build walks a dataset directory (one subdirectory per person, each
// holding face sample images), extracts an embedding per sample, and
// averages them into one master embedding per person. Images the extractor
// cannot handle are skipped and counted; a person with zero usable samples
// is skipped entirely. The returned identities are sorted by name so
// snapshot order, and therefore matcher tie-breaking, is stable across
// rebuilds.
func Build(ctx context.Context, datasetDir string, extractor Extractor) ([]Identity, BuildStats, error) {
	var stats BuildStats

	entries, err := os.ReadDir(datasetDir)
	if err != nil {
		return nil, stats, fmt.Errorf("reading dataset directory: %w", err)
	}

	var people []string
	for _, e := range entries {
		if e.IsDir() {
			people = append(people, e.Name())
		}
	}
	sort.Strings(people)

	if len(people) == 0 {
		return nil, stats, fmt.Errorf("dataset directory %s contains no person folders", datasetDir)
	}

	bar := progressbar.NewOptions(len(people),
		progressbar.OptionSetDescription("Building roster"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("people"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var identities []Identity
	for _, person := range people {
		embedding, processed, failed, err := buildPerson(ctx, filepath.Join(datasetDir, person), extractor)
		if err != nil {
			return nil, stats, err
		}
		stats.ImagesTotal += processed
		stats.ImagesFailed += failed

		if embedding == nil {
			log.Printf("roster: no usable samples for %q, skipping", person)
			stats.PeopleSkipped++
		} else {
			identities = append(identities, Identity{Name: person, Embedding: embedding})
			stats.People++
		}
		_ = bar.Add(1)
	}

	return identities, stats, nil
}

// buildPerson averages the embeddings of every readable sample image in one
// person's folder. Returns nil when no sample yields an embedding.
func buildPerson(ctx context.Context, personDir string, extractor Extractor) ([]float32, int, int, error) {
	entries, err := os.ReadDir(personDir)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading person directory %s: %w", personDir, err)
	}

	var sum []float64
	var samples, processed, failed int
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, processed, failed, err
		}
		processed++

		data, err := os.ReadFile(filepath.Join(personDir, e.Name()))
		if err != nil {
			log.Printf("roster: cannot read %s: %v", e.Name(), err)
			failed++
			continue
		}

		embedding, err := extractor.Extract(ctx, data)
		if err != nil {
			log.Printf("roster: extraction failed for %s: %v", filepath.Join(personDir, e.Name()), err)
			failed++
			continue
		}

		if sum == nil {
			sum = make([]float64, len(embedding))
		}
		if len(embedding) != len(sum) {
			log.Printf("roster: dimension mismatch for %s (%d != %d), skipping", e.Name(), len(embedding), len(sum))
			failed++
			continue
		}
		for i, v := range embedding {
			sum[i] += float64(v)
		}
		samples++
	}

	if samples == 0 {
		return nil, processed, failed, nil
	}

	avg := make([]float32, len(sum))
	for i, v := range sum {
		avg[i] = float32(v / float64(samples))
	}
	return avg, processed, failed, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
