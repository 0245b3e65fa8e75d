package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/symedon/voice-intake-platform/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "I've had a headache for three days", Timestamp: ts},
		{Role: model.RoleAssistant, Content: "How severe is the pain?", Timestamp: ts.Add(2 * time.Second)},
	}

	if err := s.Save(ctx, "conv-1", turns); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	got, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("loaded %d turns, want %d", len(got), len(turns))
	}
	for i := range turns {
		if got[i].Role != turns[i].Role || got[i].Content != turns[i].Content || !got[i].Timestamp.Equal(turns[i].Timestamp) {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, "conv-1", []model.Turn{model.NewTurn(model.RoleUser, "hello")}); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if _, err := s.Load(ctx, "conv-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreIsolatesConversations(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, "a", []model.Turn{model.NewTurn(model.RoleUser, "first")}); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if err := s.Save(ctx, "b", []model.Turn{model.NewTurn(model.RoleUser, "second")}); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	a, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load(a) = %v", err)
	}
	if a[0].Content != "first" {
		t.Errorf("conversation a content = %q", a[0].Content)
	}
}
