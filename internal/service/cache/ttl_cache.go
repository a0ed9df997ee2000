package cache

import (
	"sync"
	"time"
)

type entry struct {
	v   any
	exp time.Time
}

// TTLCache is a small in-process cache with per-entry expiry. Used to
// memoize trading-calendar lookups inside one ingestion run.
type TTLCache struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry)}
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

// Set stores v under key. ttl <= 0 means no expiry.
func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
}
