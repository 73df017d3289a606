package compose

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultReplyLimit = 1000
	TruncationNotice  = " [...response too long, truncating. cc: @adrienne]"
)

// Truncate keeps text within limit bytes. Longer text is cut on a rune boundary, then
// back to the last sentence end when there is one past the first byte, and the notice
// is appended.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	cut := limit - len(TruncationNotice)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	trimmed := text[:cut]

	if i := strings.LastIndexAny(trimmed, ".!?"); i > 0 {
		trimmed = trimmed[:i+1]
	}
	return trimmed + TruncationNotice
}
