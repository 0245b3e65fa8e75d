// Package store persists per-conversation transcripts. A transcript is the
// ordered, append-only turn list of one conversation; the stored value is the
// JSON array of turns under the key "conversation_<id>".
package store

import (
	"context"
	"errors"

	"github.com/symedon/voice-intake-platform/internal/model"
)

// ErrNotFound is returned by Load when no transcript exists for the id.
var ErrNotFound = errors.New("transcript not found")

// TranscriptStore is the persistence port for conversation transcripts. Save
// writes the full turn list after every append; Load restores it; Delete
// removes it as part of a conversation clear.
type TranscriptStore interface {
	Save(ctx context.Context, conversationID string, turns []model.Turn) error
	Load(ctx context.Context, conversationID string) ([]model.Turn, error)
	Delete(ctx context.Context, conversationID string) error
}
