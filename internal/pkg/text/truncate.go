// Package text holds small string helpers shared by the notifier and journal.
package text

import "unicode/utf8"

const ellipsis = "..."

// Truncate clips s to at most max bytes, ellipsis included, without splitting
// a UTF-8 sequence. max <= 0 disables clipping.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
