package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by Load when nothing is persisted under the key.
var ErrNoSnapshot = errors.New("cart snapshot not found")

// SnapshotStore persists the serialized cart under a key. An empty cart is
// represented by the absence of the key, never by an empty payload.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

// MemorySnapshotStore keeps snapshots in process memory. Used for local runs and tests.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{data: map[string][]byte{}}
}

func (m *MemorySnapshotStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), payload...), nil
}

func (m *MemorySnapshotStore) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}

func (m *MemorySnapshotStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether a snapshot exists for key.
func (m *MemorySnapshotStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}
