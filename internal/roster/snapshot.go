package roster

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
)

// ErrCorruptSnapshot means the snapshot container itself could not be
// decoded. Individually malformed entries are skipped, not fatal.
var ErrCorruptSnapshot = errors.New("roster snapshot is corrupt")

// snapshotFile is the on-disk container for the roster snapshot.
type snapshotFile struct {
	Model      string
	Identities []Identity
}

// ReadSnapshot decodes a roster snapshot file. Malformed entries (empty
// name, empty vector, non-finite values) are skipped with a log line so a
// partially damaged snapshot still yields a usable roster. Only a decode
// failure of the container aborts the whole read.
func ReadSnapshot(path string) ([]Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster snapshot: %w", err)
	}
	defer f.Close()

	var file snapshotFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	identities := make([]Identity, 0, len(file.Identities))
	for i, id := range file.Identities {
		if reason := validateIdentity(id); reason != "" {
			log.Printf("roster: skipping snapshot entry %d (%q): %s", i, id.Name, reason)
			continue
		}
		identities = append(identities, id)
	}
	return identities, nil
}

// WriteSnapshot encodes identities to a snapshot file, replacing any
// existing file atomically via a temp file and rename.
func WriteSnapshot(path, model string, identities []Identity) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".roster-snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snapshotFile{Model: model, Identities: identities}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode roster snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace roster snapshot: %w", err)
	}
	return nil
}

// validateIdentity returns a reason string when an entry is unusable, or ""
// when it is fine.
func validateIdentity(id Identity) string {
	if id.Name == "" {
		return "missing name"
	}
	if len(id.Embedding) == 0 {
		return "missing embedding"
	}
	for _, v := range id.Embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return "non-finite embedding value"
		}
	}
	return ""
}
