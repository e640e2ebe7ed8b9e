// Package utils provides shared utilities for text previews and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Preview flattens line breaks so a text sample fits on one log line.
func Preview(s string, maxLen int) string {
	flat := strings.Join(strings.Fields(s), " ")
	return Truncate(flat, maxLen)
}
