package domain

import "time"

// Message is one entry in a plot's conversation log (farmer or advisor).
// Messages are append-only; the only later mutation happens outside the
// message itself, when a pending update suggestion is accepted.
type Message struct {
	ID        MessageID
	UserID    UserID
	PlotID    PlotID
	Author    Role
	Text      string
	CreatedAt time.Time

	// ImageURL points at an attached photo, when the farmer sent one.
	ImageURL string

	// UpdateSuggestion marks an advisor message that offers to set the
	// plot's crop to Crop. These messages are never voiced.
	UpdateSuggestion bool
	Crop             string
}

// ImageAttachment is a photo the farmer attached to a message, already
// decoded out of the transport encoding.
type ImageAttachment struct {
	Data     []byte
	MIMEType string
	URL      string
}
