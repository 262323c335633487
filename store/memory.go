package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. Namespaces share one entry map, scoped by
// a path prefix, so Sub is cheap and entries remain visible through the
// parent for introspection.
type Memory struct {
	mu      *sync.RWMutex
	entries map[string][]byte
	ns      string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		mu:      &sync.RWMutex{},
		entries: make(map[string][]byte),
	}
}

func (m *Memory) fullKey(key string) string {
	if m.ns == "" {
		return key
	}
	return m.ns + "/" + key
}

// Exists reports whether an entry is present at key.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	m.mu.RLock()
	_, ok := m.entries[m.fullKey(key)]
	m.mu.RUnlock()
	return ok, nil
}

// Get retrieves the entry at key. Returns ErrNotFound on miss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.entries[m.fullKey(key)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	// Copy so callers cannot mutate the stored entry
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores data at key, overwriting any existing entry.
func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mu.Lock()
	m.entries[m.fullKey(key)] = stored
	m.mu.Unlock()
	return nil
}

// Delete removes the entry at key. Returns ErrNotFound if absent.
func (m *Memory) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	full := m.fullKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[full]; !ok {
		return ErrNotFound
	}
	delete(m.entries, full)
	return nil
}

// Sub derives a nested namespace sharing this store's entry map.
func (m *Memory) Sub(name string) (Store, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Memory{
		mu:      m.mu,
		entries: m.entries,
		ns:      m.fullKey(name),
	}, nil
}

// Locate returns a mem:// pseudo-path for key.
func (m *Memory) Locate(key string) string {
	return "mem://" + m.fullKey(key)
}

// Len returns the number of entries across all namespaces.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
