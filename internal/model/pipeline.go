package model

// TurnRequest is the request body for one pipeline invocation. Exactly one of
// AudioBase64 or TextInput drives the turn; audio takes precedence when both
// are set.
type TurnRequest struct {
	AudioBase64    string `json:"audioBase64,omitempty"`
	TextInput      string `json:"textInput,omitempty"`
	LanguageCode   string `json:"languageCode"`
	ConversationID string `json:"conversationId"`
	Messages       []Turn `json:"messages"`
}

// TurnResponse is the pipeline's success response. Transcription is present
// only when the turn was driven by audio. AudioResponse carries base64-encoded
// synthesized speech when synthesis succeeded.
type TurnResponse struct {
	Transcription string `json:"transcription,omitempty"`
	AIResponse    string `json:"aiResponse"`
	AudioResponse string `json:"audioResponse,omitempty"`
}

// ErrorResponse is the pipeline's failure response body.
type ErrorResponse struct {
	Error              string   `json:"error"`
	Details            string   `json:"details,omitempty"`
	SupportedLanguages []string `json:"supportedLanguages,omitempty"`
}
