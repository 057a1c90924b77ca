// Package cache holds rendered API responses until the next revalidation.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	body    []byte
	expires time.Time
}

// ResponseCache maps a request key to a rendered body. Entries expire after
// the TTL or when Invalidate is called, whichever comes first.
type ResponseCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	// generation guards against a slow render storing a body computed
	// before the latest invalidation.
	generation uint64

	now func() time.Time
}

// New creates a cache. A non-positive ttl keeps entries until invalidated.
func New(ttl time.Duration) *ResponseCache {
	return &ResponseCache{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

// Get returns the cached body for key.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.body, true
}

// Generation returns the current invalidation counter. Pass it to Set so a
// body rendered before an Invalidate is dropped.
func (c *ResponseCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Set stores body for key unless the cache was invalidated since generation gen.
func (c *ResponseCache) Set(key string, body []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	e := entry{body: body}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
	return true
}

// Invalidate drops every entry.
func (c *ResponseCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.generation++
}

// Len returns the number of stored entries, expired ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
