package speech

import (
	"errors"
	"sync"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusSpeaking  Status = "speaking"
	StatusPaused    Status = "paused"
)

// ErrNoSpeech is the benign recognizer outcome when the farmer said
// nothing. It is swallowed silently.
var ErrNoSpeech = errors.New("no speech detected")

// State is a snapshot of the coordinator. Exactly one utterance may be
// active at a time.
type State struct {
	Status        Status
	ActiveMessage domain.MessageID
}

// Coordinator bridges recognized speech to outgoing text and advisor
// text to synthesized speech. One instance per session. Microphone and
// speaker use are mutually exclusive: starting either side cancels the
// other first. Playback is last-writer-wins, never queued.
type Coordinator struct {
	recognizer domain.Recognizer
	synth      domain.Synthesizer

	mu            sync.Mutex
	status        Status
	activeMessage domain.MessageID
	pendingInput  string
	lastError     string
}

func NewCoordinator(recognizer domain.Recognizer, synth domain.Synthesizer) *Coordinator {
	return &Coordinator{
		recognizer: recognizer,
		synth:      synth,
		status:     StatusIdle,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Status: c.status, ActiveMessage: c.activeMessage}
}

// LastError returns the most recent user-visible capability message, if
// any. Cleared when a new recognition attempt starts.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// TakePendingInput returns and clears the transcript captured by the
// last recognition.
func (c *Coordinator) TakePendingInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := c.pendingInput
	c.pendingInput = ""
	return text
}

// StartListening begins a recognition attempt. Any active playback is
// cancelled first, and an in-flight recognition attempt is aborted, so
// at most one attempt ever runs.
// On a capability failure the coordinator stays Idle and the error
// surfaces to the caller.
func (c *Coordinator) StartListening(lang domain.Language) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusListening {
		c.recognizer.Abort()
		c.toIdleLocked()
	}
	if c.status == StatusSpeaking || c.status == StatusPaused {
		c.synth.Cancel()
		c.toIdleLocked()
	}

	c.lastError = ""

	if c.recognizer == nil {
		c.lastError = "Speech recognition is not supported on this device."
		return domain.ErrSpeechUnsupported
	}
	if err := c.recognizer.Start(lang); err != nil {
		switch {
		case errors.Is(err, domain.ErrSpeechPermissionDenied):
			c.lastError = "Microphone permission denied. Please allow access in your settings."
		case errors.Is(err, domain.ErrSpeechUnsupported):
			c.lastError = "Speech recognition is not supported on this device."
		default:
			c.lastError = "Could not start the microphone. Please try again."
		}
		return err
	}

	c.status = StatusListening
	return nil
}

// StopListening aborts an in-progress recognition attempt.
func (c *Coordinator) StopListening() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusListening {
		return
	}
	c.recognizer.Abort()
	c.toIdleLocked()
}

// HandleTranscript records a recognized utterance as the pending input
// text. Called by the recognizer adapter.
func (c *Coordinator) HandleTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingInput = text
}

// HandleRecognitionEnd moves Listening back to Idle when the recognizer
// finishes or fails. A "no speech" end is benign and silent; any other
// error becomes a user-visible message.
func (c *Coordinator) HandleRecognitionEnd(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusListening {
		c.toIdleLocked()
	}
	if err != nil && !errors.Is(err, ErrNoSpeech) {
		c.lastError = "An error occurred with speech recognition."
	}
}

// Speak starts playback of an advisor message. A recognition attempt in
// progress is aborted, and any prior utterance is cancelled
// unconditionally.
func (c *Coordinator) Speak(id domain.MessageID, text string, lang domain.Language) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.synth == nil || text == "" {
		return nil
	}

	if c.status == StatusListening && c.recognizer != nil {
		c.recognizer.Abort()
	}
	c.synth.Cancel()

	if err := c.synth.Speak(text, lang); err != nil {
		c.toIdleLocked()
		return err
	}

	c.status = StatusSpeaking
	c.activeMessage = id
	return nil
}

// Pause suspends the active utterance.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusSpeaking {
		return
	}
	c.synth.Pause()
	c.status = StatusPaused
}

// Resume continues a paused utterance.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPaused {
		return
	}
	c.synth.Resume()
	c.status = StatusSpeaking
}

// Stop cancels the active utterance.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusSpeaking && c.status != StatusPaused {
		return
	}
	c.synth.Cancel()
	c.toIdleLocked()
}

// HandlePlaybackEnd moves Speaking/Paused back to Idle on completion or
// error. Called by the synthesizer adapter.
func (c *Coordinator) HandlePlaybackEnd(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusSpeaking || c.status == StatusPaused {
		c.toIdleLocked()
	}
	_ = err // playback errors end the utterance; nothing else to surface
}

func (c *Coordinator) toIdleLocked() {
	c.status = StatusIdle
	c.activeMessage = ""
}
