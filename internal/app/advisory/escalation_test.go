package advisory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krishisakhi/sakhi-agent/internal/app/advisory"
)

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hasImage bool
		want     bool
	}{
		{name: "disease keyword", text: "my wheat has a disease", want: true},
		{name: "keyword is case-insensitive", text: "Is there a SUBSIDY for drip irrigation?", want: true},
		{name: "dying crop", text: "the plants are dying fast", want: true},
		{name: "soil test", text: "where do I get a soil test done", want: true},
		{name: "severe infection", text: "this looks like a severe infection", want: true},
		{name: "legal question", text: "I have a legal dispute about my land", want: true},
		{name: "ordinary question", text: "when should I irrigate my bajra?", want: false},
		{name: "keyword inside larger word", text: "I bought diseased-resistant seeds", want: true},
		{name: "image overrides disease keyword", text: "what disease is this?", hasImage: true, want: false},
		{name: "image overrides severe infection", text: "severe infection on these leaves", hasImage: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, advisory.ShouldEscalate(tt.text, tt.hasImage))
		})
	}
}

func TestReferralMessageNamesHelpline(t *testing.T) {
	assert.Contains(t, advisory.ReferralMessage, "Kisan Call Centre")
	assert.Contains(t, advisory.ReferralMessage, "1800-180-1551")
}
