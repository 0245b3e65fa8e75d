package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/middleware"
	"github.com/symedon/voice-intake-platform/internal/model"
	"github.com/symedon/voice-intake-platform/internal/pipeline"
	"github.com/symedon/voice-intake-platform/pkg/logger"
)

// TurnProcessor runs one intake turn. *pipeline.Pipeline satisfies it.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req *model.TurnRequest) (*model.TurnResponse, error)
}

// IntakeHandler handles the intake turn endpoint.
type IntakeHandler struct {
	pipeline TurnProcessor
	logger   *logger.Logger
}

// NewIntakeHandler creates a new intake handler.
func NewIntakeHandler(p TurnProcessor, log *logger.Logger) *IntakeHandler {
	return &IntakeHandler{
		pipeline: p,
		logger:   log,
	}
}

// ProcessTurn handles /api/v1/intake/turns. The endpoint accepts POST only;
// preflight OPTIONS is answered by the CORS middleware before it reaches
// here.
func (h *IntakeHandler) ProcessTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req model.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTextInput(req.TextInput); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateAudioPayload(req.AudioBase64); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.pipeline.ProcessTurn(r.Context(), &req)
	if err != nil {
		var reqErr *pipeline.RequestError
		if errors.As(err, &reqErr) {
			writeJSON(w, http.StatusBadRequest, &model.ErrorResponse{
				Error:              reqErr.Reason,
				Details:            reqErr.Details,
				SupportedLanguages: reqErr.SupportedLanguages,
			})
			return
		}

		h.logger.Error("intake turn failed",
			zap.String("conversation_id", req.ConversationID),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, &model.ErrorResponse{
			Error:   "Internal server error",
			Details: "The request could not be processed",
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
