package domain

import "time"

// SignalReport is the simulated real-time feed for a location: today's
// weather and any active pest alert, plus the dashboard extras.
type SignalReport struct {
	Weather string
	Alert   string

	MandiPrices []MandiPrice
	Scheme      string
}

// MandiPrice is one crop's current market rate at the local mandi.
type MandiPrice struct {
	Crop  string
	Price string
}

// ConversationContext is the grounding bundle assembled for one advisory
// turn. It is never persisted; it is rebuilt from scratch every turn.
type ConversationContext struct {
	Profile UserProfile
	Plot    *Plot

	// CropStage is the derived lifecycle label. "Crop not selected" when
	// the plot has no crop, regardless of sowing date.
	CropStage string

	Weather     string
	Alert       string
	HistoryNote string

	Today time.Time
}

// ModelRequest is the opaque payload the prompt composer hands to the
// model invoker. Exactly one of text mode (Image nil) or image mode.
type ModelRequest struct {
	System string
	Image  *ImageAttachment
}
