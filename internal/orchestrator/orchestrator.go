// Package orchestrator advances one conversation a turn at a time: it owns
// the transcript, the capture session, and the single-flight submission gate,
// and it is the only writer of the conversation's turn list.
package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/capture"
	"github.com/symedon/voice-intake-platform/internal/extract"
	"github.com/symedon/voice-intake-platform/internal/model"
	"github.com/symedon/voice-intake-platform/internal/store"
	"github.com/symedon/voice-intake-platform/pkg/logger"
	"github.com/symedon/voice-intake-platform/pkg/metrics"
)

// Status is the conversation-level submission state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
)

var (
	// ErrBusy is returned when a submission is attempted while another is in
	// flight, or capture is started during processing.
	ErrBusy = errors.New("a submission is already in flight")

	// ErrEmptyInput is returned when submitted text is empty after trimming.
	ErrEmptyInput = errors.New("input is empty")

	// ErrCaptureActive is returned when the language is changed while a
	// capture session is in progress.
	ErrCaptureActive = errors.New("capture in progress")
)

// PipelineClient invokes the intake pipeline for one turn. *pipeline.Pipeline
// satisfies it directly; remote deployments use an HTTP client.
type PipelineClient interface {
	ProcessTurn(ctx context.Context, req *model.TurnRequest) (*model.TurnResponse, error)
}

// Player plays synthesized reply audio. Playback is best-effort; failures are
// logged and never fail a turn.
type Player interface {
	Play(audio []byte) error
}

// Config collects the orchestrator's collaborators.
type Config struct {
	// ConversationID resumes a prior conversation when set; empty starts a
	// new one.
	ConversationID string
	Language       string

	Pipeline    PipelineClient
	Transcripts store.TranscriptStore

	// Recognizer may be nil when the platform offers no speech recognition;
	// StartCapture then fails with capture.ErrCaptureUnavailable.
	Recognizer capture.Recognizer

	// Player may be nil to disable audio playback.
	Player Player

	// OnFormComplete receives the completed intake record. The conversation
	// continues to exist after the handoff.
	OnFormComplete func(model.IntakeRecord)

	// OnCaptureError receives non-benign recognition errors.
	OnCaptureError func(error)
}

// Orchestrator drives a single conversation. Safe for concurrent use, though
// the intended model is one caller (the UI event loop).
type Orchestrator struct {
	pipeline    PipelineClient
	transcripts store.TranscriptStore
	player      Player
	capture     *capture.Machine
	logger      *logger.Logger

	onFormComplete func(model.IntakeRecord)

	mu           sync.Mutex
	conv         *model.Conversation
	status       Status
	formComplete bool
	lastError    string
}

// New creates an orchestrator and restores any persisted transcript for the
// conversation id.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Orchestrator, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline client is required")
	}
	if cfg.Transcripts == nil {
		return nil, errors.New("transcript store is required")
	}

	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	conv := model.NewConversation(language)
	if cfg.ConversationID != "" {
		conv.ID = cfg.ConversationID
		turns, err := cfg.Transcripts.Load(ctx, conv.ID)
		switch {
		case err == nil:
			conv.Turns = turns
		case errors.Is(err, store.ErrNotFound):
			// fresh conversation under a caller-chosen id
		default:
			return nil, fmt.Errorf("restore transcript: %w", err)
		}
	}

	o := &Orchestrator{
		pipeline:       cfg.Pipeline,
		transcripts:    cfg.Transcripts,
		player:         cfg.Player,
		logger:         log,
		onFormComplete: cfg.OnFormComplete,
		conv:           conv,
		status:         StatusIdle,
	}

	o.capture = capture.NewMachine(cfg.Recognizer, language, o.handleUtterance, func(err error) {
		o.setError(err.Error())
		if cfg.OnCaptureError != nil {
			cfg.OnCaptureError(err)
		}
	})

	return o, nil
}

// ConversationID returns the current conversation id.
func (o *Orchestrator) ConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.ID
}

// Status returns the submission state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Turns returns a copy of the transcript.
func (o *Orchestrator) Turns() []model.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	turns := make([]model.Turn, len(o.conv.Turns))
	copy(turns, o.conv.Turns)
	return turns
}

// FormComplete reports whether a complete intake record has been extracted.
func (o *Orchestrator) FormComplete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.formComplete
}

// LastError returns the most recent user-visible error message. It is
// overwritten by each attempt and cleared on success.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// SetLanguage changes the conversation language. Rejected while capture or a
// submission is in progress; the change applies to subsequent captures and
// turns.
func (o *Orchestrator) SetLanguage(language string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusProcessing {
		return ErrBusy
	}
	if o.capture.State() != capture.StateIdle {
		return ErrCaptureActive
	}

	o.conv.Language = language
	o.capture.SetLanguage(language)
	return nil
}

// StartCapture begins listening for one spoken utterance. Rejected while a
// submission is processing.
func (o *Orchestrator) StartCapture() error {
	o.mu.Lock()
	if o.status == StatusProcessing {
		o.mu.Unlock()
		return ErrBusy
	}
	o.mu.Unlock()

	return o.capture.Start()
}

// StopCapture aborts the in-flight capture, discarding any interim
// transcript.
func (o *Orchestrator) StopCapture() {
	o.capture.Stop()
}

// CaptureState returns the capture machine's state.
func (o *Orchestrator) CaptureState() capture.State {
	return o.capture.State()
}

// handleUtterance routes a finalized utterance into a text submission.
func (o *Orchestrator) handleUtterance(text string) {
	if err := o.SubmitText(context.Background(), text); err != nil {
		o.logger.Warn("utterance submission failed", zap.Error(err))
	}
}

// SubmitText advances the conversation by one typed or recognized utterance.
// The user turn is appended before the pipeline call and is not rolled back
// on failure, so the user may retry by submitting again.
func (o *Orchestrator) SubmitText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	o.mu.Lock()
	if o.status == StatusProcessing {
		o.mu.Unlock()
		return ErrBusy
	}
	o.status = StatusProcessing
	history := make([]model.Turn, len(o.conv.Turns))
	copy(history, o.conv.Turns)
	req := &model.TurnRequest{
		TextInput:      text,
		LanguageCode:   o.conv.Language,
		ConversationID: o.conv.ID,
		Messages:       history,
	}
	o.appendLocked(model.NewTurn(model.RoleUser, text))
	o.mu.Unlock()

	o.persist(ctx)

	return o.finishTurn(ctx, req)
}

// SubmitUtteranceAudio advances the conversation by one recorded utterance;
// transcription happens server-side. The user turn is appended from the
// returned transcription once the pipeline resolves.
func (o *Orchestrator) SubmitUtteranceAudio(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return ErrEmptyInput
	}

	o.mu.Lock()
	if o.status == StatusProcessing {
		o.mu.Unlock()
		return ErrBusy
	}
	o.status = StatusProcessing
	history := make([]model.Turn, len(o.conv.Turns))
	copy(history, o.conv.Turns)
	req := &model.TurnRequest{
		AudioBase64:    base64.StdEncoding.EncodeToString(audio),
		LanguageCode:   o.conv.Language,
		ConversationID: o.conv.ID,
		Messages:       history,
	}
	o.mu.Unlock()

	return o.finishTurn(ctx, req)
}

// finishTurn performs the pipeline call and integrates the reply: append
// turns, persist, play audio, extract, signal completion.
func (o *Orchestrator) finishTurn(ctx context.Context, req *model.TurnRequest) error {
	resp, err := o.pipeline.ProcessTurn(ctx, req)

	o.mu.Lock()
	if err != nil {
		o.status = StatusIdle
		o.lastError = err.Error()
		o.mu.Unlock()
		return fmt.Errorf("pipeline call failed: %w", err)
	}

	// Audio submissions learn their user turn from the transcription.
	if req.AudioBase64 != "" && strings.TrimSpace(resp.Transcription) != "" {
		o.appendLocked(model.NewTurn(model.RoleUser, resp.Transcription))
	}

	record, display, found := extract.FromReply(resp.AIResponse)
	o.appendLocked(model.NewTurn(model.RoleAssistant, display))

	o.status = StatusIdle
	o.lastError = ""
	if found {
		o.formComplete = true
	}
	language := o.conv.Language
	o.mu.Unlock()

	o.persist(ctx)
	o.playReply(resp.AudioResponse)

	metrics.RecordTurn(string(model.RoleAssistant), language)

	if found {
		metrics.IntakeCompletionsTotal.Inc()
		if o.onFormComplete != nil {
			o.onFormComplete(*record)
		}
	}

	return nil
}

// Clear abandons the conversation: the stored transcript is deleted and a
// fresh conversation id is issued.
func (o *Orchestrator) Clear(ctx context.Context) error {
	o.mu.Lock()
	if o.status == StatusProcessing {
		o.mu.Unlock()
		return ErrBusy
	}
	oldID := o.conv.ID
	language := o.conv.Language
	o.conv = model.NewConversation(language)
	o.formComplete = false
	o.lastError = ""
	o.mu.Unlock()

	if err := o.transcripts.Delete(ctx, oldID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// appendLocked appends a turn; the caller holds o.mu. Turns are immutable
// once appended.
func (o *Orchestrator) appendLocked(turn model.Turn) {
	o.conv.Turns = append(o.conv.Turns, turn)
}

// persist saves the full turn list under the conversation id. Persistence
// failures are logged, not surfaced: the in-memory transcript stays
// authoritative for the session.
func (o *Orchestrator) persist(ctx context.Context) {
	o.mu.Lock()
	id := o.conv.ID
	turns := make([]model.Turn, len(o.conv.Turns))
	copy(turns, o.conv.Turns)
	o.mu.Unlock()

	if err := o.transcripts.Save(ctx, id, turns); err != nil {
		o.logger.Warn("failed to persist transcript",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
	}
}

// playReply decodes and plays synthesized audio. Best-effort only.
func (o *Orchestrator) playReply(audioBase64 string) {
	if o.player == nil || audioBase64 == "" {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		o.logger.Warn("invalid reply audio encoding", zap.Error(err))
		return
	}
	if err := o.player.Play(audio); err != nil {
		o.logger.Warn("reply playback failed", zap.Error(err))
	}
}

func (o *Orchestrator) setError(message string) {
	o.mu.Lock()
	o.lastError = message
	o.mu.Unlock()
}
