package web

import (
	"sync"
	"time"
)

// responseCache holds computed calendar responses for a short TTL so
// repeated views skip the backend round trip and materialization.
type responseCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cachedResponse
}

type cachedResponse struct {
	value     any
	updatedAt time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{ttl: ttl, entries: make(map[string]cachedResponse)}
}

func (c *responseCache) get(key string, now time.Time) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || now.Sub(e.updatedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *responseCache) put(key string, value any, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedResponse{value: value, updatedAt: now}
	c.mu.Unlock()
}

func (c *responseCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cachedResponse)
	c.mu.Unlock()
}
