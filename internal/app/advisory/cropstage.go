package advisory

import (
	"fmt"
	"math"
	"time"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

const (
	StageNotSown         = "Not Sown"
	StageCropNotSelected = "Crop not selected"
)

// CropStage derives the lifecycle phase label for a plot. A plot without a
// declared crop reports "Crop not selected" regardless of sowing date.
func CropStage(plot *domain.Plot, now time.Time) string {
	if !plot.HasCrop() {
		return StageCropNotSelected
	}
	if plot.SowingDate == nil {
		return StageNotSown
	}
	days := daysSinceSowing(*plot.SowingDate, now)
	return stageForDays(days)
}

// daysSinceSowing counts whole 24h days elapsed since sowing. Negative
// when the sowing date lies in the future.
func daysSinceSowing(sowing, now time.Time) int {
	return int(math.Floor(now.Sub(sowing).Hours() / 24))
}

func stageForDays(days int) string {
	switch {
	case days < 0:
		return StageNotSown
	case days <= 15:
		return fmt.Sprintf("Germination & Seedling Stage (%d days)", days)
	case days <= 45:
		return fmt.Sprintf("Vegetative Growth Stage (%d days)", days)
	case days <= 70:
		return fmt.Sprintf("Flowering Stage (%d days)", days)
	case days <= 90:
		return fmt.Sprintf("Maturity & Ripening Stage (%d days)", days)
	default:
		return fmt.Sprintf("Ready for Harvest (%d days)", days)
	}
}
