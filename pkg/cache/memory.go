package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache with per-entry expiry and a soft size cap.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxSize int
}

// NewMemory creates a memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := &MemoryConfig{MaxSize: 1024}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		maxSize: cfg.MaxSize,
	}
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var exp time.Time
	if expiration > 0 {
		exp = time.Now().Add(expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.maxSize {
		m.evictExpiredLocked()
		if len(m.entries) >= m.maxSize {
			// Still full: drop an arbitrary entry rather than grow unbounded.
			for k := range m.entries {
				delete(m.entries, k)
				break
			}
		}
	}
	m.entries[key] = memoryEntry{value: b, expiresAt: exp}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return ErrCacheMiss
	}
	return json.Unmarshal(e.value, dest)
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) evictExpiredLocked() {
	now := time.Now()
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
