package advisory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krishisakhi/sakhi-agent/internal/adapters/signals"
	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

func TestContextBuilder(t *testing.T) {
	builder := advisory.NewContextBuilder(signals.NewStaticHistory(), signals.NewStaticSource())

	profile := domain.UserProfile{ID: "u1", Name: "Ramesh", Language: domain.LanguageHindi}
	sowing := time.Now().AddDate(0, 0, -20)
	plot := &domain.Plot{
		ID:         "p1",
		Name:       "North Field",
		Location:   "Jaipur, Rajasthan",
		Crop:       "Bajra",
		SowingDate: &sowing,
	}

	convCtx := builder.Build(profile, plot)

	assert.Equal(t, profile, convCtx.Profile)
	assert.Equal(t, plot, convCtx.Plot)
	assert.Equal(t, "Vegetative Growth Stage (20 days)", convCtx.CropStage)
	assert.NotEmpty(t, convCtx.Weather)
	assert.Contains(t, convCtx.Alert, "white grub")
	assert.Contains(t, convCtx.HistoryNote, "white grub infestation")
	assert.False(t, convCtx.Today.IsZero())
}

func TestContextBuilderWithoutCrop(t *testing.T) {
	builder := advisory.NewContextBuilder(signals.NewStaticHistory(), signals.NewStaticSource())

	profile := domain.UserProfile{ID: "u1", Name: "Ramesh"}
	sowing := time.Now().AddDate(0, 0, -20)
	plot := &domain.Plot{ID: "p1", Location: "Kochi, Kerala", SowingDate: &sowing}

	convCtx := builder.Build(profile, plot)

	// crop stage is marked absent, never derived from the sowing date alone
	assert.Equal(t, advisory.StageCropNotSelected, convCtx.CropStage)
	assert.Contains(t, convCtx.Alert, "No major pest outbreaks")
}

func TestContextBuilderNilPlot(t *testing.T) {
	builder := advisory.NewContextBuilder(signals.NewStaticHistory(), signals.NewStaticSource())

	convCtx := builder.Build(domain.UserProfile{Name: "Ramesh"}, nil)

	assert.Equal(t, advisory.StageCropNotSelected, convCtx.CropStage)
	assert.Contains(t, convCtx.HistoryNote, "No significant issues")
}
