package domain

import "context"

// ModelClient is a single attempt against the generative model service.
// Retry policy lives above this interface, in the invoker.
type ModelClient interface {
	Generate(ctx context.Context, req ModelRequest) (string, error)
}

// MessageStore is the external ordered-log store for conversation messages.
type MessageStore interface {
	// AppendMessage persists msg, assigning an ID when empty, and returns
	// the persisted record.
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)

	// ListMessages returns the plot's log ordered by ascending timestamp.
	ListMessages(ctx context.Context, userID UserID, plotID PlotID) ([]*Message, error)

	// SubscribeMessages opens a live stream of append events for the
	// plot's log. The stream stays open until Close or ctx cancellation.
	SubscribeMessages(ctx context.Context, userID UserID, plotID PlotID) (MessageSubscription, error)
}

// MessageSubscription is a cancellable stream of appended messages.
type MessageSubscription interface {
	// Events yields messages in store insertion order. The channel is
	// closed when the subscription ends.
	Events() <-chan *Message
	Close()
}

// PlotStore is the external profile/record store for farm plots.
type PlotStore interface {
	GetPlot(ctx context.Context, userID UserID, plotID PlotID) (*Plot, error)
	ListPlots(ctx context.Context, userID UserID) ([]*Plot, error)
	SavePlot(ctx context.Context, plot *Plot) error

	// SetCrop mutates only the plot's current crop. This is the one write
	// the advisory core performs on plot records.
	SetCrop(ctx context.Context, userID UserID, plotID PlotID, crop string) error
}

// ProfileStore reads farmer profiles. Profiles are owned by the host
// account system; the core never writes them.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID UserID) (*UserProfile, error)
}

// SignalSource supplies the simulated real-time feed for a location.
type SignalSource interface {
	Report(location string) SignalReport
}

// PlotHistory looks up the free-text note about a plot's past seasons.
type PlotHistory interface {
	Note(plotID PlotID) string
}

// Recognizer is the speech-to-text capability of the platform.
type Recognizer interface {
	// Start begins a single recognition attempt in the given language.
	// It returns ErrSpeechUnsupported or ErrSpeechPermissionDenied when
	// the attempt cannot begin. Results arrive via the coordinator's
	// event methods.
	Start(lang Language) error
	Abort()
}

// Synthesizer is the text-to-speech capability of the platform.
type Synthesizer interface {
	Speak(text string, lang Language) error
	Pause()
	Resume()
	Cancel()
}
