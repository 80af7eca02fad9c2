package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnchorsAgree(t *testing.T) {
	content := "intro\n\n# Intro\ntext\n# Intro\n## ???\n```\n# fenced\n```\n## Details"

	doc := Parse(content)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, []string{"intro", "intro-1", "section-2", "details"}, sectionAnchors(doc.Sections))
	assert.Empty(t, AnchorMismatches(doc.Sections, doc.Blocks))

	for i, h := range Headings(doc.Blocks) {
		assert.Equal(t, doc.Sections[i].Anchor, h.Anchor)
		assert.Equal(t, doc.Sections[i].Order, i)
	}
}

func TestParseEmpty(t *testing.T) {
	doc := Parse("")
	assert.NotNil(t, doc.Sections)
	assert.Empty(t, doc.Sections)
	assert.Empty(t, doc.Blocks)
}

func TestAnchorMismatchesLegacyPair(t *testing.T) {
	// duplicate titles and an empty slug after a non-heading line both diverge
	content := "# Intro\n# Intro\ntext\n# !!!"

	mismatches := AnchorMismatches(ExtractSections(content), RenderDocument(content))

	require.Len(t, mismatches, 2)
	assert.Equal(t, Mismatch{Index: 1, Title: "Intro", SectionAnchor: "intro-1", HeadingAnchor: "intro", Line: 1}, mismatches[0])
	assert.Equal(t, Mismatch{Index: 2, Title: "!!!", SectionAnchor: "section-2", HeadingAnchor: "section-3", Line: 3}, mismatches[1])
}

func TestAnchorMismatchesFencedHeading(t *testing.T) {
	content := "```\n# Hidden\n```\n# Shown"

	mismatches := AnchorMismatches(ExtractSections(content), RenderDocument(content))

	require.Len(t, mismatches, 2)
	assert.Equal(t, "hidden", mismatches[0].SectionAnchor)
	assert.Equal(t, "shown", mismatches[0].HeadingAnchor)
	assert.Equal(t, "shown", mismatches[1].SectionAnchor)
	assert.Equal(t, "", mismatches[1].HeadingAnchor)
	assert.Equal(t, -1, mismatches[1].Line)
}

func TestAnchorMismatchesNoneForSimpleDocument(t *testing.T) {
	content := "# Title\nSome text.\n## Sub\n- item a\n- item b\n"
	assert.Empty(t, AnchorMismatches(ExtractSections(content), RenderDocument(content)))
}

func sectionAnchors(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Anchor
	}
	return out
}

func TestSectionText(t *testing.T) {
	content := "# Guide\nIntro.\n## Install\nStep one.\n### Linux\napt install\n## Usage\nRun it.\n"
	doc := Parse(content)

	tests := []struct {
		anchor string
		want   string
		found  bool
	}{
		{"install", "## Install\nStep one.\n### Linux\napt install", true},
		{"linux", "### Linux\napt install", true},
		{"usage", "## Usage\nRun it.", true},
		{"guide", strings.TrimRight(content, "\n"), true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			got, ok := SectionText(content, doc.Blocks, tt.anchor)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
