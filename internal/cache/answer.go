// Package cache provides the process-wide in-memory stores shared by all
// requests: the bounded answer cache and the TTL caches used by the web
// fetchers. All stores are safe for concurrent use.
package cache

import (
	"crypto/md5" //nolint:gosec // fingerprint only, not a security boundary
	"encoding/hex"
	"strings"
	"sync"
)

// Entry is a cached chat answer. Callers must only store entries with
// HasAnswer=true so that error and fallback texts are never served stale.
type Entry struct {
	Answer    string
	HasAnswer bool
}

// AnswerCache is a bounded map with FIFO eviction: when full, the oldest
// inserted key is evicted, regardless of how recently it was read. Entries
// never expire by time.
type AnswerCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Entry
	order    []string // insertion order, oldest first
}

// NewAnswerCache creates an answer cache with the given capacity.
func NewAnswerCache(capacity int) *AnswerCache {
	if capacity <= 0 {
		capacity = 50
	}
	return &AnswerCache{
		capacity: capacity,
		entries:  make(map[string]Entry, capacity),
	}
}

// Key derives the cache fingerprint for a message and optional extra context.
// Two requests differing only by case or surrounding whitespace share a key.
func Key(message, extraContext string) string {
	h := md5.New() //nolint:gosec
	h.Write([]byte(strings.ToLower(strings.TrimSpace(message))))
	if extra := strings.ToLower(strings.TrimSpace(extraContext)); extra != "" {
		h.Write([]byte{0})
		h.Write([]byte(extra))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key, if present.
func (c *AnswerCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put inserts an entry, evicting the oldest inserted key when at capacity.
// Re-inserting an existing key updates the value without changing its age.
func (c *AnswerCache) Put(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = e
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = e
	c.order = append(c.order, key)
}

// Len returns the current number of entries.
func (c *AnswerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
