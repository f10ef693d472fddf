// Package mention extracts @mention tokens from chat message text.
package mention

import "regexp"

// A mention is an @ followed by one or more characters that are neither
// whitespace nor another @. Trailing punctuation is intentionally kept:
// the platform renders mentions verbatim and trimming would change what
// the user actually typed.
var mentionPattern = regexp.MustCompile(`@[^\s@]+`)

// Extract returns every mention token found in text, deduplicated while
// preserving first-occurrence order. No mentions yields an empty slice.
func Extract(text string) []string {
	matches := mentionPattern.FindAllString(text, -1)
	mentions := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		mentions = append(mentions, m)
	}
	return mentions
}
