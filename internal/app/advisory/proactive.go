package advisory

import "strings"

// ProactiveUpdateMarker is the literal tag the model appends when the
// farmer commits to growing a named crop. The marker format is a fragile
// text protocol; keep all knowledge of it inside this file.
const ProactiveUpdateMarker = "PROACTIVE_UPDATE_SUGGESTION:"

// ParseProactiveUpdate splits raw model output on the update marker.
// displayText is the text before the marker (may be empty), proposedCrop
// the text after it, both trimmed. found is false when the marker is
// absent, in which case the whole output is the display text.
func ParseProactiveUpdate(text string) (displayText, proposedCrop string, found bool) {
	before, after, ok := strings.Cut(text, ProactiveUpdateMarker)
	if !ok {
		return text, "", false
	}
	return strings.TrimSpace(before), strings.TrimSpace(after), true
}
