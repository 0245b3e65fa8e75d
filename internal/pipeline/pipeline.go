// Package pipeline implements the server-side intake turn pipeline: decode
// incoming audio, transcribe it, generate the assistant reply, and synthesize
// speech for it. One call processes exactly one conversational turn and holds
// no state between invocations.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/llm"
	"github.com/symedon/voice-intake-platform/internal/model"
	"github.com/symedon/voice-intake-platform/internal/speech"
	"github.com/symedon/voice-intake-platform/internal/store"
	"github.com/symedon/voice-intake-platform/pkg/logger"
	"github.com/symedon/voice-intake-platform/pkg/metrics"
)

// RequestError marks a turn request the pipeline rejected as invalid. The
// transport layer maps it to a 400 with a structured body.
type RequestError struct {
	Reason             string
	Details            string
	SupportedLanguages []string
}

func (e *RequestError) Error() string {
	if e.Details == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Details
}

// Pipeline processes intake turns. All provider handles are injected at
// construction; there is no ambient client state.
type Pipeline struct {
	transcriber speech.Transcriber
	llmClient   llm.Client
	synthesizer speech.Synthesizer
	transcripts store.TranscriptStore
	logger      *logger.Logger
	modelName   string
}

// Config collects the pipeline's collaborators. Transcriber is required for
// audio turns; Synthesizer and Transcripts are optional — a nil Synthesizer
// disables speech output, a nil Transcripts store disables server-side
// transcript retention.
type Config struct {
	Transcriber speech.Transcriber
	LLM         llm.Client
	Synthesizer speech.Synthesizer
	Transcripts store.TranscriptStore
	Model       string
}

// New creates a pipeline.
func New(cfg Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		transcriber: cfg.Transcriber,
		llmClient:   cfg.LLM,
		synthesizer: cfg.Synthesizer,
		transcripts: cfg.Transcripts,
		logger:      log,
		modelName:   cfg.Model,
	}
}

// ProcessTurn runs one conversational turn through the pipeline. Audio input
// takes precedence over text. The returned response always carries a reply;
// synthesized audio is best-effort and omitted on synthesis failure.
func (p *Pipeline) ProcessTurn(ctx context.Context, req *model.TurnRequest) (*model.TurnResponse, error) {
	if req.LanguageCode == "" {
		return nil, &RequestError{
			Reason:  "Invalid language code",
			Details: "Language code must be a non-empty string",
		}
	}
	if !LanguageSupported(req.LanguageCode) {
		return nil, &RequestError{
			Reason:             "Unsupported language",
			Details:            fmt.Sprintf("Language code %q is not supported", req.LanguageCode),
			SupportedLanguages: SupportedLanguages(),
		}
	}

	resp := &model.TurnResponse{}

	var utterance string
	switch {
	case req.AudioBase64 != "":
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			return nil, &RequestError{
				Reason:  "Invalid audio data",
				Details: "audioBase64 is not valid base64",
			}
		}
		if p.transcriber == nil {
			return nil, fmt.Errorf("no transcriber configured")
		}
		utterance, err = p.transcriber.Transcribe(ctx, audio, req.LanguageCode)
		if err != nil {
			return nil, fmt.Errorf("speech-to-text: %w", err)
		}
		resp.Transcription = utterance
	case req.TextInput != "":
		utterance = req.TextInput
	default:
		return nil, &RequestError{
			Reason:  "No input provided",
			Details: "Either audioBase64 or textInput must be provided",
		}
	}

	if strings.TrimSpace(utterance) == "" {
		return nil, &RequestError{
			Reason:  "No transcription was generated",
			Details: "The input was empty or could not be processed",
		}
	}

	reply, err := p.generate(ctx, req, utterance)
	if err != nil {
		return nil, err
	}

	// The reply is normalized for speech before it is returned or spoken, so
	// the user-facing text and the synthesized text always match.
	resp.AIResponse = normalizeSpeechText(reply)

	if p.synthesizer != nil && resp.AIResponse != "" {
		audio, err := p.synthesizer.Synthesize(ctx, resp.AIResponse, req.LanguageCode)
		if err != nil {
			p.logger.Warn("speech synthesis failed, omitting audio",
				zap.String("conversation_id", req.ConversationID),
				zap.Error(err),
			)
		} else {
			resp.AudioResponse = base64.StdEncoding.EncodeToString(audio)
		}
	}

	p.persistTranscript(ctx, req, utterance, resp.AIResponse)

	return resp, nil
}

// generate invokes the language model once with the instruction prompt, the
// sorted history, and the new utterance.
func (p *Pipeline) generate(ctx context.Context, req *model.TurnRequest, utterance string) (string, error) {
	start := time.Now()

	completion, err := p.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:       p.modelName,
		System:      systemPrompt(req.LanguageCode),
		Messages:    buildMessages(req.Messages, utterance),
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		metrics.RecordStage("llm", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("language model: %w", err)
	}
	metrics.RecordStage("llm", "success", time.Since(start).Seconds())
	metrics.RecordLLMUsage(completion.Model, completion.TokensIn, completion.TokensOut)

	reply := strings.TrimSpace(completion.Content)
	if reply == "" {
		return "", fmt.Errorf("language model returned an empty reply")
	}
	return reply, nil
}

// persistTranscript saves the updated transcript when a store is configured.
// Failures are logged, never surfaced: the turn already succeeded.
func (p *Pipeline) persistTranscript(ctx context.Context, req *model.TurnRequest, utterance, reply string) {
	if p.transcripts == nil || req.ConversationID == "" {
		return
	}

	turns := make([]model.Turn, 0, len(req.Messages)+2)
	turns = append(turns, req.Messages...)
	turns = append(turns, model.NewTurn(model.RoleUser, utterance))
	turns = append(turns, model.NewTurn(model.RoleAssistant, reply))

	if err := p.transcripts.Save(ctx, req.ConversationID, turns); err != nil {
		p.logger.Warn("failed to persist transcript",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		return
	}

	metrics.RecordTurn(string(model.RoleUser), req.LanguageCode)
	metrics.RecordTurn(string(model.RoleAssistant), req.LanguageCode)
}

// normalizeSpeechText prepares reply text for synthesis: control characters
// removed, newlines flattened, runs of whitespace collapsed, markdown
// emphasis stripped.
func normalizeSpeechText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20 || (r >= 0x7f && r <= 0x9f):
			// control character, drop
		case r == '*' || r == '_':
			// markdown emphasis, drop
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
