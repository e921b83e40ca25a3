package cache

import (
	"sync"
	"time"
)

// TTLCache is a string-keyed cache whose entries are valid for a fixed
// duration after insertion. Stale entries are replaced on the next write,
// never actively purged.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]ttlEntry
	now     func() time.Time // injectable for tests
}

type ttlEntry struct {
	at    time.Time
	value string
}

// NewTTLCache creates a TTL cache.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]ttlEntry),
		now:     time.Now,
	}
}

// WithClock overrides the cache clock. For tests.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

// Get returns the value for key if it is still within its TTL.
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return "", false
	}
	return e.value, true
}

// Put stores a value, stamping it with the current time.
func (c *TTLCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry{at: c.now(), value: value}
}
