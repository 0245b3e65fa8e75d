package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxAudioBase64Bytes caps the encoded audio payload at roughly 10MB of raw
// audio, which covers several minutes of compressed speech.
const maxAudioBase64Bytes = 14 * 1024 * 1024

// ValidateTextInput validates a typed utterance.
func ValidateTextInput(content string) error {
	if len(content) > 100000 {
		return errors.New("textInput exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("textInput must be valid UTF-8")
	}
	return nil
}

// ValidateAudioPayload validates the size of an encoded audio payload.
func ValidateAudioPayload(audioBase64 string) error {
	if len(audioBase64) > maxAudioBase64Bytes {
		return errors.New("audioBase64 exceeds maximum size")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}
