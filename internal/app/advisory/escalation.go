package advisory

import "strings"

// escalationKeywords covers the query classes that go to a human channel
// instead of the model: disease, mortality, legal, subsidy, soil testing
// and severe infections.
var escalationKeywords = []string{
	"disease",
	"dying",
	"legal",
	"subsidy",
	"soil test",
	"severe infection",
}

// ReferralMessage is the fixed human-referral reply, produced locally
// without any model invocation.
const ReferralMessage = "This sounds like a critical issue that requires an expert opinion. " +
	"For the most accurate guidance, I strongly recommend contacting your local Krishi Adhikari (Agricultural Officer). " +
	"You can also call the national Kisan Call Centre (KCC) toll-free at 1800-180-1551."

// ShouldEscalate reports whether the latest farmer message must be routed
// to the human helpline. An attached image always proceeds to image
// analysis, regardless of keywords. This is a cheap pre-filter on the
// incoming text only; it never inspects model output.
func ShouldEscalate(text string, hasImage bool) bool {
	if hasImage {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
