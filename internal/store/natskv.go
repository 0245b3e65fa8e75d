package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/symedon/voice-intake-platform/internal/model"
)

const (
	// BucketName is the JetStream KV bucket holding conversation transcripts.
	BucketName = "CONVERSATIONS"
)

// KVStore is a TranscriptStore backed by a NATS JetStream key-value bucket.
// One key per conversation, value = JSON array of turns.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore binds to the transcript bucket, creating it if necessary.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	kv, err := js.KeyValue(ctx, BucketName)
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("bind transcript bucket: %w", err)
		}
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      BucketName,
			Description: "Per-conversation intake transcripts",
			Storage:     jetstream.FileStorage,
			History:     1,
		})
		if err != nil {
			return nil, fmt.Errorf("create transcript bucket: %w", err)
		}
	}

	return &KVStore{kv: kv}, nil
}

// Save implements TranscriptStore.
func (s *KVStore) Save(ctx context.Context, conversationID string, turns []model.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	if _, err := s.kv.Put(ctx, model.StorageKey(conversationID), data); err != nil {
		return fmt.Errorf("put transcript: %w", err)
	}
	return nil
}

// Load implements TranscriptStore.
func (s *KVStore) Load(ctx context.Context, conversationID string) ([]model.Turn, error) {
	entry, err := s.kv.Get(ctx, model.StorageKey(conversationID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	var turns []model.Turn
	if err := json.Unmarshal(entry.Value(), &turns); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return turns, nil
}

// Delete implements TranscriptStore.
func (s *KVStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.kv.Purge(ctx, model.StorageKey(conversationID)); err != nil {
		return fmt.Errorf("purge transcript: %w", err)
	}
	return nil
}
