package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Cache used in tests and as a fallback when no
// redis address is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFunc func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.nowFunc().After(e.expiresAt) {
		delete(m.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.nowFunc().Add(ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) Key(parts ...string) string {
	return strings.Join(parts, ":")
}
