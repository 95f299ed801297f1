package advisory

import (
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// ContextBuilder assembles the grounding bundle for one advisory turn
// from the plot record, the plot-history lookup and the real-time signal
// feed. The bundle is ephemeral and rebuilt every turn.
type ContextBuilder struct {
	history domain.PlotHistory
	signals domain.SignalSource
	now     func() time.Time
}

func NewContextBuilder(history domain.PlotHistory, signals domain.SignalSource) *ContextBuilder {
	return &ContextBuilder{
		history: history,
		signals: signals,
		now:     time.Now,
	}
}

// Build derives the ConversationContext for the given farmer and plot.
// The plot may be nil or have unset fields; the crop stage is explicitly
// marked absent rather than defaulted when no crop is declared.
func (b *ContextBuilder) Build(profile domain.UserProfile, plot *domain.Plot) domain.ConversationContext {
	now := b.now()

	var location string
	var plotID domain.PlotID
	if plot != nil {
		location = plot.Location
		plotID = plot.ID
	}

	report := b.signals.Report(location)

	return domain.ConversationContext{
		Profile:     profile,
		Plot:        plot,
		CropStage:   CropStage(plot, now),
		Weather:     report.Weather,
		Alert:       report.Alert,
		HistoryNote: b.history.Note(plotID),
		Today:       now,
	}
}
