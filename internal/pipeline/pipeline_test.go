package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/llm"
	"github.com/symedon/voice-intake-platform/internal/model"
	"github.com/symedon/voice-intake-platform/internal/store"
	"github.com/symedon/voice-intake-platform/pkg/logger"
)

type fakeTranscriber struct {
	text     string
	err      error
	calls    int
	lastLang string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	f.calls++
	f.lastLang = languageCode
	return f.text, f.err
}

type fakeLLM struct {
	reply   string
	err     error
	lastReq *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake"}, nil
}

func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return []string{"fake"} }

type fakeSynthesizer struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newTestPipeline(t *fakeTranscriber, l *fakeLLM, s *fakeSynthesizer) *Pipeline {
	cfg := Config{LLM: l}
	if t != nil {
		cfg.Transcriber = t
	}
	if s != nil {
		cfg.Synthesizer = s
	}
	return New(cfg, testLogger())
}

func TestProcessTurnTextInputSkipsTranscription(t *testing.T) {
	stt := &fakeTranscriber{text: "should not be used"}
	gen := &fakeLLM{reply: "How long have you had the headache?"}
	p := newTestPipeline(stt, gen, nil)

	resp, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "I have a headache",
		LanguageCode: "en-US",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() = %v", err)
	}

	if stt.calls != 0 {
		t.Errorf("transcriber called %d times for a text turn", stt.calls)
	}
	if resp.Transcription != "" {
		t.Errorf("transcription = %q, want empty for text input", resp.Transcription)
	}
	if resp.AIResponse != "How long have you had the headache?" {
		t.Errorf("aiResponse = %q", resp.AIResponse)
	}
}

func TestProcessTurnAudioTakesPrecedence(t *testing.T) {
	stt := &fakeTranscriber{text: "I've had a headache for three days"}
	gen := &fakeLLM{reply: "How severe is it?"}
	p := newTestPipeline(stt, gen, nil)

	resp, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		AudioBase64:  base64.StdEncoding.EncodeToString([]byte("opus-bytes")),
		TextInput:    "typed text that must lose",
		LanguageCode: "en-US",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() = %v", err)
	}

	if stt.calls != 1 {
		t.Fatalf("transcriber called %d times, want 1", stt.calls)
	}
	if stt.lastLang != "en-US" {
		t.Errorf("transcriber language = %q", stt.lastLang)
	}
	if resp.Transcription != "I've had a headache for three days" {
		t.Errorf("transcription = %q", resp.Transcription)
	}

	last := gen.lastReq.Messages[len(gen.lastReq.Messages)-1]
	if last.Content != "I've had a headache for three days" {
		t.Errorf("model saw utterance %q, want the transcription", last.Content)
	}
}

func TestProcessTurnNoInput(t *testing.T) {
	p := newTestPipeline(nil, &fakeLLM{reply: "x"}, nil)

	_, err := p.ProcessTurn(context.Background(), &model.TurnRequest{LanguageCode: "en-US"})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("ProcessTurn() = %v, want RequestError", err)
	}
	if reqErr.Reason != "No input provided" {
		t.Errorf("reason = %q", reqErr.Reason)
	}
}

func TestProcessTurnUnsupportedLanguage(t *testing.T) {
	p := newTestPipeline(nil, &fakeLLM{reply: "x"}, nil)

	_, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "hello",
		LanguageCode: "xx-XX",
	})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("ProcessTurn() = %v, want RequestError", err)
	}
	if len(reqErr.SupportedLanguages) == 0 {
		t.Error("expected supported language list in the rejection")
	}
}

func TestProcessTurnInvalidBase64(t *testing.T) {
	p := newTestPipeline(&fakeTranscriber{}, &fakeLLM{reply: "x"}, nil)

	_, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		AudioBase64:  "not!!!base64",
		LanguageCode: "en-US",
	})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("ProcessTurn() = %v, want RequestError", err)
	}
}

func TestProcessTurnEmptyTranscription(t *testing.T) {
	stt := &fakeTranscriber{text: ""}
	p := newTestPipeline(stt, &fakeLLM{reply: "x"}, nil)

	_, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		AudioBase64:  base64.StdEncoding.EncodeToString([]byte("silence")),
		LanguageCode: "en-US",
	})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("ProcessTurn() = %v, want RequestError for empty utterance", err)
	}
}

func TestProcessTurnSynthesisFailureOmitsAudio(t *testing.T) {
	tts := &fakeSynthesizer{err: errors.New("voice service down")}
	p := newTestPipeline(nil, &fakeLLM{reply: "Noted."}, tts)

	resp, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "my age is 34",
		LanguageCode: "en-US",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() = %v, synthesis failure must not fail the turn", err)
	}
	if resp.AudioResponse != "" {
		t.Errorf("audioResponse = %q, want omitted", resp.AudioResponse)
	}
	if resp.AIResponse != "Noted." {
		t.Errorf("aiResponse = %q", resp.AIResponse)
	}
}

func TestProcessTurnSynthesisSuccess(t *testing.T) {
	tts := &fakeSynthesizer{audio: []byte{1, 2, 3}}
	p := newTestPipeline(nil, &fakeLLM{reply: "Noted."}, tts)

	resp, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "my age is 34",
		LanguageCode: "en-US",
	})
	if err != nil {
		t.Fatalf("ProcessTurn() = %v", err)
	}

	want := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	if resp.AudioResponse != want {
		t.Errorf("audioResponse = %q, want %q", resp.AudioResponse, want)
	}
}

func TestProcessTurnLLMFailure(t *testing.T) {
	p := newTestPipeline(nil, &fakeLLM{err: errors.New("model overloaded")}, nil)

	_, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "hello",
		LanguageCode: "en-US",
	})
	if err == nil {
		t.Fatal("expected generation failure to abort the turn")
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		t.Errorf("provider failure should not be a RequestError: %v", err)
	}
}

func TestProcessTurnHistoryOrderingAndSystemFiltering(t *testing.T) {
	gen := &fakeLLM{reply: "ok"}
	p := newTestPipeline(nil, gen, nil)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := []model.Turn{
		{Role: model.RoleAssistant, Content: "second", Timestamp: base.Add(2 * time.Second)},
		{Role: model.RoleSystem, Content: "internal", Timestamp: base},
		{Role: model.RoleUser, Content: "first", Timestamp: base.Add(time.Second)},
	}

	if _, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:    "third",
		LanguageCode: "en-US",
		Messages:     history,
	}); err != nil {
		t.Fatalf("ProcessTurn() = %v", err)
	}

	got := gen.lastReq.Messages
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("model saw %d messages, want %d (system turns dropped)", len(got), len(want))
	}
	for i, content := range want {
		if got[i].Content != content {
			t.Errorf("message %d = %q, want %q", i, got[i].Content, content)
		}
	}
	if gen.lastReq.System == "" {
		t.Error("expected instruction prompt in the system slot")
	}
}

func TestProcessTurnPersistsTranscript(t *testing.T) {
	transcripts := store.NewMemoryStore()
	p := New(Config{
		LLM:         &fakeLLM{reply: "How severe?"},
		Transcripts: transcripts,
	}, testLogger())

	history := []model.Turn{model.NewTurn(model.RoleUser, "hello")}
	if _, err := p.ProcessTurn(context.Background(), &model.TurnRequest{
		TextInput:      "I have a headache",
		LanguageCode:   "en-US",
		ConversationID: "conv-9",
		Messages:       history,
	}); err != nil {
		t.Fatalf("ProcessTurn() = %v", err)
	}

	turns, err := transcripts.Load(context.Background(), "conv-9")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("persisted %d turns, want history + user + assistant", len(turns))
	}
	if turns[1].Content != "I have a headache" || turns[1].Role != model.RoleUser {
		t.Errorf("user turn = %+v", turns[1])
	}
	if turns[2].Content != "How severe?" || turns[2].Role != model.RoleAssistant {
		t.Errorf("assistant turn = %+v", turns[2])
	}
}

func TestNormalizeSpeechText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "newlines flattened", in: "line one\nline two", want: "line one line two"},
		{name: "markdown stripped", in: "*very* _important_", want: "very important"},
		{name: "whitespace collapsed", in: "a   b\t\tc", want: "a b c"},
		{name: "control characters dropped", in: "ok\x00\x1fdone", want: "okdone"},
		{name: "unicode preserved", in: "सिरदर्द कब से है?", want: "सिरदर्द कब से है?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeSpeechText(tt.in); got != tt.want {
				t.Errorf("normalizeSpeechText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLanguageRegistry(t *testing.T) {
	if !LanguageSupported("en-US") {
		t.Error("en-US must be supported")
	}
	if LanguageSupported("xx-XX") {
		t.Error("xx-XX must not be supported")
	}
	langs := SupportedLanguages()
	if len(langs) < 50 {
		t.Errorf("supported language list suspiciously short: %d", len(langs))
	}
}
