package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/symedon/voice-intake-platform/internal/model"
)

// MemoryStore is an in-process TranscriptStore. It backs tests and
// deployments without a NATS cluster. Values are held in their serialized
// form so Load always round-trips through the same JSON contract as the KV
// store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save implements TranscriptStore.
func (s *MemoryStore) Save(ctx context.Context, conversationID string, turns []model.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	s.mu.Lock()
	s.data[model.StorageKey(conversationID)] = data
	s.mu.Unlock()
	return nil
}

// Load implements TranscriptStore.
func (s *MemoryStore) Load(ctx context.Context, conversationID string) ([]model.Turn, error) {
	s.mu.RLock()
	data, ok := s.data[model.StorageKey(conversationID)]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return turns, nil
}

// Delete implements TranscriptStore.
func (s *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.data, model.StorageKey(conversationID))
	s.mu.Unlock()
	return nil
}
