package utils

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes cuts s to at most max characters without splitting a UTF-8 sequence
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// ContainsAny reports whether s contains any of the keywords, case-insensitively.
// Keywords are expected in lower case.
func ContainsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TruncateForLog shortens text for log fields
func TruncateForLog(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	return TruncateRunes(text, maxLength) + "..."
}

// FirstToken returns the first whitespace-delimited token of s, lower-cased
func FirstToken(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
