package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/symedon/voice-intake-platform/pkg/metrics"
)

// voiceBySubtag maps language primary subtags to synthesis voices. The
// provider's voices are multilingual; the mapping spreads accents rather than
// selecting a per-language model.
var voiceBySubtag = map[string]openai.SpeechVoice{
	"en": openai.VoiceAlloy,
	"es": openai.VoiceNova,
	"fr": openai.VoiceShimmer,
	"de": openai.VoiceOnyx,
	"hi": openai.VoiceFable,
	"ja": openai.VoiceEcho,
}

const defaultVoice = openai.VoiceAlloy

// VoiceFor selects the synthesis voice for a language code's primary subtag.
func VoiceFor(languageCode string) openai.SpeechVoice {
	if voice, ok := voiceBySubtag[PrimarySubtag(languageCode)]; ok {
		return voice
	}
	return defaultVoice
}

// OpenAITranscriber transcribes utterance audio with the Whisper endpoint.
type OpenAITranscriber struct {
	client *openai.Client
}

// NewOpenAITranscriber creates a Whisper-backed transcriber.
func NewOpenAITranscriber(apiKey string) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAITranscriber{client: openai.NewClient(apiKey)}, nil
}

// Transcribe implements Transcriber. The provider takes the primary language
// subtag as a recognition hint; an empty result is returned as an empty
// string.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	start := time.Now()

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "utterance.webm",
		Language: PrimarySubtag(languageCode),
	})
	if err != nil {
		metrics.RecordStage("stt", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	metrics.RecordStage("stt", "success", time.Since(start).Seconds())
	return resp.Text, nil
}

// OpenAISynthesizer synthesizes reply speech with the TTS endpoint.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
}

// NewOpenAISynthesizer creates a TTS-backed synthesizer.
func NewOpenAISynthesizer(apiKey string) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		model:  openai.TTSModel1,
	}, nil
}

// Synthesize implements Synthesizer, returning MP3 bytes.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	start := time.Now()
	voice := VoiceFor(languageCode)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		metrics.RecordStage("tts", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		metrics.RecordStage("tts", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}

	metrics.RecordStage("tts", "success", time.Since(start).Seconds())
	metrics.SynthesisBytesTotal.WithLabelValues(string(voice)).Add(float64(len(audio)))
	return audio, nil
}
