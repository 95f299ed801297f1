package advisory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
)

func TestParseProactiveUpdate(t *testing.T) {
	t.Run("marker present", func(t *testing.T) {
		display, crop, found := advisory.ParseProactiveUpdate("Great, plant Bajra now.\nPROACTIVE_UPDATE_SUGGESTION: Bajra")
		assert.True(t, found)
		assert.Equal(t, "Great, plant Bajra now.", display)
		assert.Equal(t, "Bajra", crop)
	})

	t.Run("marker absent", func(t *testing.T) {
		display, crop, found := advisory.ParseProactiveUpdate("Water your field in the evening.")
		assert.False(t, found)
		assert.Equal(t, "Water your field in the evening.", display)
		assert.Empty(t, crop)
	})

	t.Run("marker with empty display text", func(t *testing.T) {
		display, crop, found := advisory.ParseProactiveUpdate("PROACTIVE_UPDATE_SUGGESTION: Moong")
		assert.True(t, found)
		assert.Empty(t, display)
		assert.Equal(t, "Moong", crop)
	})

	t.Run("crop name is trimmed", func(t *testing.T) {
		_, crop, found := advisory.ParseProactiveUpdate("Good choice.\nPROACTIVE_UPDATE_SUGGESTION:   Wheat  ")
		assert.True(t, found)
		assert.Equal(t, "Wheat", crop)
	})
}
