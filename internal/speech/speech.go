// Package speech provides speech-to-text and text-to-speech provider ports.
// Providers are opaque network services; the pipeline consumes them through
// these interfaces so tests can substitute fakes.
package speech

import (
	"context"
	"strings"
)

// Transcriber converts one finalized utterance of audio into text. An empty
// transcript with a nil error means the provider recognized nothing; callers
// treat that as an empty string, not a failure.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error)
}

// Synthesizer converts reply text into spoken audio bytes for the given
// language. Synthesis failures are non-fatal to a turn; callers omit the
// audio rather than failing the request.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

// PrimarySubtag extracts the primary language subtag from an IETF tag:
// "en-US" -> "en", "yue-HK" -> "yue". An empty tag yields "".
func PrimarySubtag(languageCode string) string {
	tag, _, _ := strings.Cut(languageCode, "-")
	return strings.ToLower(tag)
}
