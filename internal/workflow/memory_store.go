package workflow

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process CheckpointStore for tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]json.RawMessage)}
}

func memoryKey(workflow, runKey, step string) string {
	return workflow + "\x00" + runKey + "\x00" + step
}

// Load implements CheckpointStore.
func (m *MemoryStore) Load(_ context.Context, workflow, runKey, step string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[memoryKey(workflow, runKey, step)]

	return v, ok, nil
}

// Save implements CheckpointStore. The first save for a step wins.
func (m *MemoryStore) Save(_ context.Context, workflow, runKey, step string, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey(workflow, runKey, step)
	if _, exists := m.data[k]; !exists {
		m.data[k] = append(json.RawMessage(nil), result...)
	}

	return nil
}

// Len returns the number of stored checkpoints.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.data)
}
