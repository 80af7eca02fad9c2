package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSectionsEndToEnd(t *testing.T) {
	content := "# Title\nSome text.\n## Sub\n- item a\n- item b\n"

	sections := ExtractSections(content)

	assert.Equal(t, []Section{
		{Title: "Title", Level: 1, Anchor: "title", Order: 0},
		{Title: "Sub", Level: 2, Anchor: "sub", Order: 1},
	}, sections)
}

func TestExtractSectionsByteOrderMark(t *testing.T) {
	sections := ExtractSections("\uFEFF# Title\ntext\n## Sub")

	assert.Equal(t, []Section{
		{Title: "Title", Level: 1, Anchor: "title", Order: 0},
		{Title: "Sub", Level: 2, Anchor: "sub", Order: 1},
	}, sections)
}

func TestExtractSectionsEmpty(t *testing.T) {
	sections := ExtractSections("")
	require.NotNil(t, sections)
	assert.Empty(t, sections)

	assert.Empty(t, ExtractSections("plain text\nno headings here"))
}

func TestExtractSectionsCollision(t *testing.T) {
	sections := ExtractSections("# Intro\ntext\n# Intro\n# Intro")

	require.Len(t, sections, 3)
	assert.Equal(t, "intro", sections[0].Anchor)
	assert.Equal(t, "intro-1", sections[1].Anchor)
	assert.Equal(t, "intro-2", sections[2].Anchor)
}

func TestExtractSectionsLevelClamp(t *testing.T) {
	sections := ExtractSections("####### Deep")

	require.Len(t, sections, 1)
	assert.Equal(t, 6, sections[0].Level)
	assert.Equal(t, "Deep", sections[0].Title)
}

func TestExtractSectionsSkipsEmptyHeadings(t *testing.T) {
	sections := ExtractSections("# A\n### \n##\n## B")

	require.Len(t, sections, 2)
	assert.Equal(t, 0, sections[0].Order)
	assert.Equal(t, 1, sections[1].Order)
	assert.Equal(t, "B", sections[1].Title)
}

func TestExtractSectionsFallbackSeededByOrder(t *testing.T) {
	// "%%%" slugs to nothing, so its anchor uses the heading order
	sections := ExtractSections("intro line\n# First\n\n## %%%")

	require.Len(t, sections, 2)
	assert.Equal(t, "section-1", sections[1].Anchor)
}

func TestExtractSectionsIndentedAndNoSpace(t *testing.T) {
	sections := ExtractSections("   ## Indented\n#NoSpace")

	require.Len(t, sections, 2)
	assert.Equal(t, "Indented", sections[0].Title)
	assert.Equal(t, 2, sections[0].Level)
	assert.Equal(t, "NoSpace", sections[1].Title)
}

func TestExtractSectionsCountsFencedHashLines(t *testing.T) {
	sections := ExtractSections("```sh\n# not a heading\n```\n# Real")

	require.Len(t, sections, 2)
	assert.Equal(t, "not a heading", sections[0].Title)
}

func TestExtractSectionsUniqueAndDeterministic(t *testing.T) {
	content := strings.Repeat("# Same\n## Same\n### Other\n", 5)

	first := ExtractSections(content)
	assert.Equal(t, first, ExtractSections(content))

	seen := map[string]bool{}
	for _, s := range first {
		assert.False(t, seen[s.Anchor], "duplicate anchor %s", s.Anchor)
		seen[s.Anchor] = true
	}
}
