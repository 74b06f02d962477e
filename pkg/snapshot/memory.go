package snapshot

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps encoded snapshots in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, snap *Snapshot) (string, error) {
	key, err := snap.Key()
	if err != nil {
		return "", err
	}
	data, err := snap.Encode()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return key, nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	if _, _, err := ParseKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	prefix := sessionID + "/"
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored snapshots.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
