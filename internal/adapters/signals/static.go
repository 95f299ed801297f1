// Package signals provides the simulated real-time feed: weather, pest
// alerts, mandi prices and scheme notices. It is one stub implementation
// of domain.SignalSource; a live feed would slot in behind the same port.
package signals

import (
	"fmt"
	"regexp"
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

var dryRegion = regexp.MustCompile(`(?i)rajasthan|jaipur|jodhpur`)

const schemeNotice = "The state government has announced a 50% subsidy on drip irrigation systems. Last date to apply is Oct 31st."

// StaticSource serves fixed signal content keyed on the plot's location
// string, with a dry-region heuristic raising the pest-alert variant.
type StaticSource struct {
	now func() time.Time
}

func NewStaticSource() *StaticSource {
	return &StaticSource{now: time.Now}
}

func (s *StaticSource) Report(location string) domain.SignalReport {
	day := s.now().Weekday().String()
	dry := dryRegion.MatchString(location)

	report := domain.SignalReport{
		Weather: fmt.Sprintf("Clear skies today (%s) with a high of 34°C. A slight chance of rain is forecast for two days from now.", day),
		Scheme:  schemeNotice,
	}

	if dry {
		report.Alert = fmt.Sprintf("Alert: Increased reports of white grub activity in the %s region. Farmers are advised to monitor their crops.", location)
		report.MandiPrices = []domain.MandiPrice{
			{Crop: "Bajra (Pearl Millet)", Price: "₹2,350 / quintal"},
			{Crop: "Moong (Green Gram)", Price: "₹7,800 / quintal"},
		}
	} else {
		report.Alert = "Alert: No major pest outbreaks reported, but monitor for common fungal diseases due to humidity."
		report.MandiPrices = []domain.MandiPrice{
			{Crop: "Wheat", Price: "₹2,125 / quintal"},
			{Crop: "Mustard", Price: "₹5,450 / quintal"},
		}
	}

	return report
}

// StaticHistory is the stubbed plot-history lookup. Unknown plots get
// the generic "no issues" note.
type StaticHistory struct{}

func NewStaticHistory() *StaticHistory {
	return &StaticHistory{}
}

func (StaticHistory) Note(plotID domain.PlotID) string {
	if plotID != "" {
		return "Last season, this plot experienced a moderate white grub infestation that was treated with chlorpyrifos. The soil also tends to be slightly alkaline."
	}
	return "No significant issues reported in the previous season."
}
