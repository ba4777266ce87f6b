package session

import "sync"

// dedupeCache is the in-memory fast path for per-session de-duplication.
// Entries are keyed to one session id: Reset rebinds the cache when a
// session opens or closes, and Add ignores writes carrying a stale session
// id so a request that raced a session change can never seed the next
// session's cache. It only avoids database round trips; the unique
// constraint in storage remains the authoritative check.
type dedupeCache struct {
	mu        sync.Mutex
	sessionID string
	seen      map[int64]struct{}
}

func newDedupeCache() *dedupeCache {
	return &dedupeCache{seen: make(map[int64]struct{})}
}

func (c *dedupeCache) Has(sessionID string, studentID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sessionID != c.sessionID {
		return false
	}
	_, ok := c.seen[studentID]
	return ok
}

// Add records a student as seen, unless the cache has moved on to a
// different session since the caller looked up the id.
func (c *dedupeCache) Add(sessionID string, studentID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sessionID != c.sessionID {
		return
	}
	c.seen[studentID] = struct{}{}
}

// Reset clears the cache and binds it to the given session id. An empty id
// means no session is open.
func (c *dedupeCache) Reset(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.seen = make(map[int64]struct{})
}

func (c *dedupeCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
