package domain

import "time"

// UserProfile is the farmer's account record. It is owned by the host
// account system and read-only here.
type UserProfile struct {
	ID       UserID
	Name     string
	Language Language
}

// Plot is a single farm parcel with its agronomic attributes.
// The advisory core only ever writes Crop (via the accept-update flow);
// everything else is edited by the host application's forms.
type Plot struct {
	ID       PlotID
	UserID   UserID
	Name     string
	Location string
	LandSize string

	IrrigationSource string
	SoilType         string
	SoilPH           string
	Nitrogen         string
	Phosphorus       string
	Potassium        string

	Crop         string
	SowingDate   *time.Time
	PreviousCrop string
}

// HasCrop reports whether a current crop has been declared for the plot.
func (p *Plot) HasCrop() bool {
	return p != nil && p.Crop != ""
}
