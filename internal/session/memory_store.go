package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps serialized states in process memory. Expired entries
// are swept on Save at most once per TTL.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]memoryEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok && m.ttl > 0 && m.now().After(entry.expires) {
		delete(m.entries, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state failed: %w", err)
	}
	return &state, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state failed: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	m.entries[id] = memoryEntry{data: data, expires: now.Add(m.ttl)}
	return nil
}

// sweep drops expired entries. Callers hold m.mu.
func (m *MemoryStore) sweep(now time.Time) {
	if m.ttl <= 0 || now.Before(m.nextSweep) {
		return
	}
	for id, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, id)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}
