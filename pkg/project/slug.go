package project

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// fallbackSlug is used when a name has no usable characters
const fallbackSlug = "project"

// GenerateSlug lower-cases name, turns every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
func GenerateSlug(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
