package markdown

import (
	"strconv"
	"strings"
)

const anchorFallbackPrefix = "section"

// GenerateAnchor maps heading text to a URL-safe identifier.
// Text that produces no usable characters falls back to "section-<fallbackIndex>".
func GenerateAnchor(text string, fallbackIndex int) string {
	if anchor := slugifyAnchor(text); anchor != "" {
		return anchor
	}
	return anchorFallbackPrefix + "-" + strconv.Itoa(fallbackIndex)
}

// GenerateAnchorNoFallback is GenerateAnchor for callers without a positional index.
// Unusable text yields the literal "section".
func GenerateAnchorNoFallback(text string) string {
	if anchor := slugifyAnchor(text); anchor != "" {
		return anchor
	}
	return anchorFallbackPrefix
}

// slugifyAnchor lower-cases text, keeps [a-z0-9], and turns every run of
// whitespace and hyphens into a single hyphen. Leading and trailing hyphens are dropped.
func slugifyAnchor(text string) string {
	if trimSpace(text) == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false

	for _, r := range strings.ToLower(text) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || isSpace(r):
			pendingHyphen = true
		}
		// anything else is removed without acting as a separator
	}

	return b.String()
}

// anchorSet tracks anchors already assigned during one extraction run.
type anchorSet map[string]struct{}

// claim returns candidate, or candidate-1, candidate-2, ... whichever is free first,
// and records the result as used.
func (s anchorSet) claim(candidate string) string {
	final := candidate
	for counter := 1; ; counter++ {
		if _, taken := s[final]; !taken {
			break
		}
		final = candidate + "-" + strconv.Itoa(counter)
	}
	s[final] = struct{}{}
	return final
}
