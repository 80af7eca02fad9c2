package search

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const defaultChunkTokens = 512

// Chunk is one piece of a section as the index sees it.
type Chunk struct {
	Text     string   // Splitter output, parent heading lines included
	Body     string   // Text without the heading lines that open it
	Headings []string // Outermost heading first
	Tokens   int      // -1 without a tokenizer
}

// ChunkerConfig sizes chunks in tokens. Zero values fall back to defaults.
type ChunkerConfig struct {
	Size    int
	Overlap int
}

// normalized replaces sizes the splitter cannot work with.
func (c ChunkerConfig) normalized() ChunkerConfig {
	if c.Size <= 0 {
		c.Size = defaultChunkTokens
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		c.Overlap = 0
	}
	return c
}

// newSplitter cuts markdown at headings and repeats the parent headings in
// every piece. Pieces still over Size are cut again on paragraph, line, and
// word boundaries.
func newSplitter(c ChunkerConfig) textsplitter.TextSplitter {
	sizing := []textsplitter.Option{
		textsplitter.WithChunkSize(c.Size),
		textsplitter.WithChunkOverlap(c.Overlap),
		textsplitter.WithLenFunc(tokenLen),
	}
	fallback := textsplitter.NewRecursiveCharacter(sizing...)
	return textsplitter.NewMarkdownTextSplitter(append(sizing,
		textsplitter.WithHeadingHierarchy(true),
		textsplitter.WithSecondSplitter(fallback),
	)...)
}

// ChunkMarkdown splits markdown into token-bounded chunks. Blank input and
// blank pieces produce no chunks.
func ChunkMarkdown(markdown string, cfg ChunkerConfig) ([]Chunk, error) {
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}

	pieces, err := newSplitter(cfg.normalized()).SplitText(markdown)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		headings, body := leadingHeadings(piece)
		chunks = append(chunks, Chunk{
			Text:     piece,
			Body:     body,
			Headings: headings,
			Tokens:   CountTokens(piece),
		})
	}
	return chunks, nil
}

var atxHeading = regexp.MustCompile(`^#{1,6}\s+(\S.*)$`)

// leadingHeadings splits the run of heading lines at the top of text from
// the rest. Headings further down belong to the body.
func leadingHeadings(text string) (headings []string, body string) {
	lines := strings.Split(text, "\n")
	n := 0
	for ; n < len(lines); n++ {
		m := atxHeading.FindStringSubmatch(lines[n])
		if m == nil {
			break
		}
		headings = append(headings, strings.TrimSpace(m[1]))
	}
	return headings, strings.TrimSpace(strings.Join(lines[n:], "\n"))
}
