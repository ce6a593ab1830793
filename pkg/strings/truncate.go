package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest value printed in a table cell by the CLI.
const DefaultCellMaxLen = 48

// MinTruncateLen is the smallest maxLen honoured by the truncation helpers.
const MinTruncateLen = 5

const ellipsis = "..."

// SingleLine collapses every run of whitespace, including newlines, into a
// single space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s on a single line, cut to maxLen runes with a trailing
// "..." when it is longer.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	runes := []rune(SingleLine(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateMiddle is like Truncate but keeps both ends of s and elides the
// middle. URLs stay recognisable by scheme and host as well as by path tail.
func TruncateMiddle(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	runes := []rune(SingleLine(s))
	if len(runes) <= maxLen {
		return string(runes)
	}
	keep := maxLen - len(ellipsis)
	head := (keep + 1) / 2
	tail := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
