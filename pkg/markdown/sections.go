package markdown

import "strings"

const maxHeadingLevel = 6

// Section is one heading occurrence in a document.
type Section struct {
	Title  string `json:"title" yaml:"title"`
	Level  int    `json:"level" yaml:"level"`
	Anchor string `json:"anchor" yaml:"anchor"`
	Order  int    `json:"order" yaml:"order"`
}

// ExtractSections scans content line by line and returns every heading in document order.
// Anchors are unique within the result; repeats get -1, -2, ... suffixes.
// Lines are not checked for code fences, so "#" lines inside fences are counted.
func ExtractSections(content string) []Section {
	if content == "" {
		return []Section{}
	}

	sections := []Section{}
	used := anchorSet{}
	order := 0

	for _, line := range strings.Split(content, "\n") {
		level, title, ok := ParseHeadingLine(line)
		if !ok || title == "" {
			continue
		}

		anchor := used.claim(GenerateAnchor(title, order))
		sections = append(sections, Section{
			Title:  title,
			Level:  clampLevel(level),
			Anchor: anchor,
			Order:  order,
		})
		order++
	}

	return sections
}

// ParseHeadingLine reports whether the trimmed line starts with '#'.
// level is the raw count of leading '#' characters and title is the trimmed remainder.
func ParseHeadingLine(line string) (level int, title string, ok bool) {
	trimmed := trimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	return level, trimSpace(trimmed[level:]), true
}

func clampLevel(level int) int {
	if level > maxHeadingLevel {
		return maxHeadingLevel
	}
	return level
}
