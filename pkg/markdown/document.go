package markdown

import "strings"

// Document is the result of one shared parse: blocks and sections whose anchors agree.
type Document struct {
	Sections []Section `json:"sections"`
	Blocks   []Block   `json:"-"`
}

// Parse renders content once and derives the section list from the rendered
// headings. Anchors are seeded by heading order and deduplicated, then written
// back into the Heading blocks, so every Section.Anchor has a matching block.
//
// Unlike ExtractSections, "#" lines inside code fences are not sections here.
func Parse(content string) Document {
	blocks := RenderDocument(content)
	sections := []Section{}
	used := anchorSet{}

	for i, b := range blocks {
		h, ok := b.(Heading)
		if !ok {
			continue
		}
		order := len(sections)
		h.Anchor = used.claim(GenerateAnchor(h.Text, order))
		blocks[i] = h
		sections = append(sections, Section{
			Title:  h.Text,
			Level:  h.Level,
			Anchor: h.Anchor,
			Order:  order,
		})
	}

	return Document{Sections: sections, Blocks: blocks}
}

// Headings returns the Heading blocks in document order.
func Headings(blocks []Block) []Heading {
	var headings []Heading
	for _, b := range blocks {
		if h, ok := b.(Heading); ok {
			headings = append(headings, h)
		}
	}
	return headings
}

// Mismatch describes the Nth heading whose section anchor and rendered anchor differ.
// Either side is empty when one list is longer than the other.
type Mismatch struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	SectionAnchor string `json:"section_anchor"`
	HeadingAnchor string `json:"heading_anchor"`
	Line          int    `json:"line"`
}

// AnchorMismatches pairs the Nth section with the Nth Heading block and
// reports every pair whose anchors disagree.
func AnchorMismatches(sections []Section, blocks []Block) []Mismatch {
	headings := Headings(blocks)
	n := max(len(sections), len(headings))

	var mismatches []Mismatch
	for i := 0; i < n; i++ {
		m := Mismatch{Index: i, Line: -1}
		if i < len(sections) {
			m.Title = sections[i].Title
			m.SectionAnchor = sections[i].Anchor
		}
		if i < len(headings) {
			if m.Title == "" {
				m.Title = headings[i].Text
			}
			m.HeadingAnchor = headings[i].Anchor
			m.Line = headings[i].Line
		}
		if m.SectionAnchor != m.HeadingAnchor {
			mismatches = append(mismatches, m)
		}
	}
	return mismatches
}

// SectionText returns the source lines of the section whose heading carries
// anchor, up to the next heading of the same or a shallower level.
func SectionText(content string, blocks []Block, anchor string) (string, bool) {
	headings := Headings(blocks)
	for i, h := range headings {
		if h.Anchor != anchor {
			continue
		}
		lines := strings.Split(content, "\n")
		end := len(lines)
		for _, next := range headings[i+1:] {
			if next.Level <= h.Level {
				end = next.Line
				break
			}
		}
		return strings.TrimRight(strings.Join(lines[h.Line:end], "\n"), "\n"), true
	}
	return "", false
}
