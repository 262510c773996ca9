package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process. Used in development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Value: append([]byte(nil), e.Value...), Version: e.Version}, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Value: append([]byte(nil), value...), Version: m.entries[key].Version + 1}
	return nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, key string, version int64, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[key]
	if (!ok && version != 0) || (ok && cur.Version != version) {
		return 0, ErrVersionConflict
	}
	next := version + 1
	m.entries[key] = Entry{Value: append([]byte(nil), value...), Version: next}
	return next, nil
}
