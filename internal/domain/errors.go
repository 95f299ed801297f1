package domain

import "errors"

var (
	// ErrModelOverloaded signals a transient "service unavailable" failure
	// from the model service. The invoker retries these.
	ErrModelOverloaded = errors.New("model service overloaded")

	// ErrModelUnavailable is the terminal form of ErrModelOverloaded, raised
	// once the retry budget is exhausted. Callers present a "very busy, try
	// again" message instead of a generic failure.
	ErrModelUnavailable = errors.New("model unavailable after retries")

	ErrPlotNotFound    = errors.New("plot not found")
	ErrProfileNotFound = errors.New("profile not found")

	// Speech capability failures. Surfaced inline to the user, never thrown
	// into the conversation flow.
	ErrSpeechUnsupported      = errors.New("speech recognition not supported")
	ErrSpeechPermissionDenied = errors.New("microphone permission denied")
)

// IsOverload reports whether err is (or wraps) the transient overload
// condition that the model invoker is allowed to retry.
func IsOverload(err error) bool {
	return errors.Is(err, ErrModelOverloaded)
}
