// Package capture wraps a platform speech-recognition capability behind a
// small finite-state machine: Idle -> Listening -> Idle, one utterance at a
// time. Interim recognition results are exposed only as live feedback and are
// never emitted as utterances.
package capture

import (
	"errors"
	"fmt"
	"sync"
)

// State is the capture machine's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

var (
	// ErrCaptureUnavailable is returned by Start when the platform offers no
	// recognition capability.
	ErrCaptureUnavailable = errors.New("speech recognition unavailable")

	// ErrAlreadyActive is returned by Start when a capture session is already
	// in progress.
	ErrAlreadyActive = errors.New("capture already active")
)

// AbortedCode is the recognition error code for a benign user abort. Aborts
// return the machine to Idle without surfacing an error.
const AbortedCode = "aborted"

// RecognitionError is a non-benign recognition failure surfaced to the owner.
// The machine is back in Idle by the time the error is delivered; the caller
// decides whether to retry.
type RecognitionError struct {
	Code    string
	Message string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition error (%s): %s", e.Code, e.Message)
}

// Recognizer is the platform speech-recognition port. Begin starts an
// asynchronous recognition session that reports results and errors through
// sink; End aborts the in-flight session. Both are synchronous triggers, not
// blocking calls.
type Recognizer interface {
	Begin(language string, sink Sink) error
	End()
}

// Sink receives recognition events from a Recognizer. The Machine implements
// it; platform adapters call into it from their event threads.
type Sink interface {
	// Result delivers a recognition result. Only final results complete the
	// utterance; interim results update live feedback.
	Result(transcript string, final bool)

	// Error delivers a recognition failure identified by a platform error code.
	Error(code, message string)
}

// Machine is the speech capture state machine. All methods are safe for
// concurrent use; recognition events may arrive from a different goroutine
// than Start/Stop calls.
type Machine struct {
	recognizer Recognizer

	onUtterance func(text string)
	onError     func(err error)

	mu       sync.Mutex
	state    State
	language string
	interim  string
}

// NewMachine creates an idle capture machine. recognizer may be nil when the
// platform has no recognition capability; Start then fails with
// ErrCaptureUnavailable. onUtterance receives each finalized utterance;
// onError receives non-benign recognition errors. Either callback may be nil.
func NewMachine(recognizer Recognizer, language string, onUtterance func(string), onError func(error)) *Machine {
	return &Machine{
		recognizer:  recognizer,
		onUtterance: onUtterance,
		onError:     onError,
		state:       StateIdle,
		language:    language,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Interim returns the latest interim transcript for live-typing feedback. It
// is cleared whenever the machine returns to Idle.
func (m *Machine) Interim() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interim
}

// SetLanguage records the language for subsequent captures. A change made
// mid-capture does not affect the in-flight session; it applies to the next
// Start.
func (m *Machine) SetLanguage(language string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.language = language
}

// Start begins listening for one utterance. Valid only from Idle.
func (m *Machine) Start() error {
	m.mu.Lock()

	if m.recognizer == nil {
		m.mu.Unlock()
		return ErrCaptureUnavailable
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrAlreadyActive
	}

	m.state = StateListening
	m.interim = ""
	language := m.language
	m.mu.Unlock()

	if err := m.recognizer.Begin(language, m); err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		return fmt.Errorf("start recognition: %w", err)
	}

	return nil
}

// Stop aborts the in-flight capture, discarding any interim transcript. It is
// a no-op when the machine is already Idle. No utterance is emitted.
func (m *Machine) Stop() {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return
	}
	m.state = StateIdle
	m.interim = ""
	m.mu.Unlock()

	m.recognizer.End()
}

// Result implements Sink.
func (m *Machine) Result(transcript string, final bool) {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return
	}

	if !final {
		m.interim = transcript
		m.mu.Unlock()
		return
	}

	m.state = StateIdle
	m.interim = ""
	m.mu.Unlock()

	if m.onUtterance != nil {
		m.onUtterance(transcript)
	}
}

// Error implements Sink. Benign aborts return the machine to Idle silently;
// every other code is surfaced through the error callback. The machine stays
// usable either way.
func (m *Machine) Error(code, message string) {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return
	}
	m.state = StateIdle
	m.interim = ""
	m.mu.Unlock()

	if code == AbortedCode {
		return
	}

	if m.onError != nil {
		m.onError(&RecognitionError{Code: code, Message: message})
	}
}
