// internal/store/memory.go
//
// In-memory implementation of the KV interface.
// Used in development/testing, or when durability is not required
// (STORAGE=memory).
//
// Characteristics:
//   - Stores one flat record per profile in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// KV persists flat string records keyed by profile id. A record is the
// storage equivalent of a browser's localStorage for one player.
type KV interface {
	// Load returns the record for profile. A profile with nothing stored
	// yields an empty, non-nil map.
	Load(ctx context.Context, profile string) (map[string]string, error)

	// Save writes every key of rec for profile, replacing existing values.
	// Keys not present in rec are left untouched.
	Save(ctx context.Context, profile string, rec map[string]string) error

	// Clear removes every key stored for profile.
	Clear(ctx context.Context, profile string) error
}

// memory is an in-memory map-based KV implementation.
type memory struct {
	mu      sync.RWMutex                 // guards records
	records map[string]map[string]string // keyed by profile id
}

// NewMemoryStore constructs a new in-memory KV.
func NewMemoryStore() KV {
	return &memory{records: make(map[string]map[string]string)}
}

func (m *memory) Load(ctx context.Context, profile string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.records[profile]))
	for k, v := range m.records[profile] {
		out[k] = v
	}
	return out, nil
}

func (m *memory) Save(ctx context.Context, profile string, rec map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[profile]
	if !ok {
		cur = make(map[string]string, len(rec))
		m.records[profile] = cur
	}
	for k, v := range rec {
		cur[k] = v
	}
	return nil
}

func (m *memory) Clear(ctx context.Context, profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, profile)
	return nil
}
