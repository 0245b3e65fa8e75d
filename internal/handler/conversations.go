package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/middleware"
	"github.com/symedon/voice-intake-platform/internal/model"
	"github.com/symedon/voice-intake-platform/internal/store"
	"github.com/symedon/voice-intake-platform/pkg/logger"
)

// ConversationHandler handles transcript retrieval and deletion.
type ConversationHandler struct {
	transcripts store.TranscriptStore
	logger      *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(transcripts store.TranscriptStore, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		transcripts: transcripts,
		logger:      log,
	}
}

// transcriptResponse is the GET turns payload.
type transcriptResponse struct {
	ConversationID string       `json:"conversationId"`
	Turns          []model.Turn `json:"turns"`
}

// GetTurns handles GET /api/v1/conversations/{id}/turns
func (h *ConversationHandler) GetTurns(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	turns, err := h.transcripts.Load(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to load transcript",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	writeJSON(w, http.StatusOK, &transcriptResponse{
		ConversationID: conversationID,
		Turns:          turns,
	})
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.transcripts.Delete(r.Context(), conversationID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to delete transcript",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete transcript")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
