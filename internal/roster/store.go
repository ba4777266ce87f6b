package roster

import (
	"fmt"
	"sync/atomic"
)

// Store holds the in-memory roster behind an atomic pointer. Reload swaps
// the whole snapshot at once, so concurrent matchers always see either the
// old roster or the new one in full, never a mix. Reload is safe while an
// attendance session is open.
type Store struct {
	path     string
	snapshot atomic.Pointer[[]Identity]
}

// NewStore creates a store backed by the given snapshot file. The store is
// empty until the first Load.
func NewStore(path string) *Store {
	s := &Store{path: path}
	empty := make([]Identity, 0)
	s.snapshot.Store(&empty)
	return s
}

// Load reads the snapshot file and atomically installs it as the current
// roster. On error the previous roster stays in place.
func (s *Store) Load() error {
	identities, err := ReadSnapshot(s.path)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	s.snapshot.Store(&identities)
	return nil
}

// Replace atomically installs the given identities as the current roster.
// Used when the roster comes from a source other than the snapshot file.
func (s *Store) Replace(identities []Identity) {
	copied := make([]Identity, len(identities))
	copy(copied, identities)
	s.snapshot.Store(&copied)
}

// Snapshot returns the current roster. Callers must not mutate the
// returned slice; it is shared with concurrent readers.
func (s *Store) Snapshot() []Identity {
	return *s.snapshot.Load()
}

// Size returns the number of enrolled identities.
func (s *Store) Size() int {
	return len(*s.snapshot.Load())
}

// Path returns the snapshot file path this store loads from.
func (s *Store) Path() string {
	return s.path
}
