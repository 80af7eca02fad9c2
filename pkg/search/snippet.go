package search

import (
	"strings"
	"unicode"
)

// extractSnippet returns up to maxLen runes of content around the first
// case-insensitive occurrence of query, with "..." marking truncation.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	// Lowered rune by rune so indexes stay aligned with runes
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	queryRunes := []rune(strings.ToLower(query))

	idx := -1
	if len(queryRunes) > 0 {
		for i := 0; i <= len(lower)-len(queryRunes); i++ {
			if string(lower[i:i+len(queryRunes)]) == string(queryRunes) {
				idx = i
				break
			}
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := max(idx-maxLen/2, 0)
	end := min(idx+len(queryRunes)+maxLen/2, len(runes))

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

// collapseWhitespace flattens newlines so snippets read as one line.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
