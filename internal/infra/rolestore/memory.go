package rolestore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// MemoryBackend keeps roles in process. Publish is a no-op since there are
// no other instances to reach.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[key]
	if !ok || !e.live(m.now()) {
		return "", ErrNoRole
	}
	return e.value, nil
}

func (m *MemoryBackend) SetPair(_ context.Context, primaryKey, legacyKey, value string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var prev string
	if e, ok := m.data[primaryKey]; ok && e.live(now) {
		prev = e.value
	}

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.data[primaryKey] = e
	m.data[legacyKey] = e
	return prev, nil
}

func (m *MemoryBackend) Publish(context.Context, RoleChanged) error { return nil }
