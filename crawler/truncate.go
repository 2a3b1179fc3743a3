package crawler

import "unicode/utf8"

// TruncationMarker is appended to text cut down to a byte budget.
const TruncationMarker = "\n...[truncated]"

// Truncate limits text to budget bytes. The cut never splits a multi-byte
// character, so the kept prefix may be a few bytes shorter than budget.
func Truncate(text string, budget int) (string, bool) {
	if budget <= 0 || len(text) <= budget {
		return text, false
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncationMarker, true
}
