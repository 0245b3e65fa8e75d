package model

import (
	"github.com/google/uuid"
)

// Conversation represents one intake conversation. The turn list is owned by
// the orchestrator driving the conversation and is append-only.
type Conversation struct {
	ID       string `json:"id"`
	Turns    []Turn `json:"turns"`
	Language string `json:"language"`
}

// NewConversation creates an empty conversation with a fresh id.
func NewConversation(language string) *Conversation {
	return &Conversation{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Language: language,
	}
}

// StorageKey returns the persistence key for a conversation id.
func StorageKey(conversationID string) string {
	return "conversation_" + conversationID
}
