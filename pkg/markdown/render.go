package markdown

import (
	"regexp"
	"strings"
)

const fenceDelimiter = "```"

var (
	bulletItemRegex  = regexp.MustCompile(`^` + spaceClass + `*[-*+]` + spaceClass)
	orderedItemRegex = regexp.MustCompile(`^` + spaceClass + `*\d+\.` + spaceClass)
)

// scanState names the renderer's multi-line accumulation modes.
type scanState int

const (
	stateNormal scanState = iota
	stateInFence
	stateInList
)

// renderer is the per-call state machine behind RenderDocument.
type renderer struct {
	state    scanState
	language string
	code     strings.Builder
	items    []string
	blocks   []Block
}

// RenderDocument turns markdown text into an ordered sequence of blocks in a single pass.
// Malformed constructs degrade to paragraphs; nothing here returns an error.
//
// Heading anchors are seeded with the source line index and are not deduplicated,
// so they can differ from ExtractSections. Use Parse for agreeing anchors.
// An unterminated fence at end of input is dropped.
func RenderDocument(content string) []Block {
	r := &renderer{blocks: []Block{}}
	if content == "" {
		return r.blocks
	}

	for index, line := range strings.Split(content, "\n") {
		r.processLine(index, line)
	}
	r.flushList()

	return r.blocks
}

func (r *renderer) processLine(index int, line string) {
	if strings.HasPrefix(line, fenceDelimiter) {
		r.toggleFence(line)
		return
	}

	if r.state == stateInFence {
		r.code.WriteString(line)
		r.code.WriteByte('\n')
		return
	}

	trimmed := trimSpace(line)

	if strings.HasPrefix(trimmed, "#") {
		r.flushList()
		level, text, _ := ParseHeadingLine(trimmed)
		if text == "" {
			return
		}
		r.emit(Heading{
			Level:  clampLevel(level),
			Anchor: GenerateAnchor(text, index),
			Text:   text,
			Line:   index,
		})
		return
	}

	if loc := bulletItemRegex.FindStringIndex(line); loc != nil {
		r.appendItem(line[loc[1]:])
		return
	}
	if loc := orderedItemRegex.FindStringIndex(line); loc != nil {
		r.appendItem(line[loc[1]:])
		return
	}

	if trimmed == "" {
		// blank lines only matter as list terminators
		r.flushList()
		return
	}

	if strings.HasPrefix(trimmed, ">") {
		r.flushList()
		text := strings.TrimPrefix(trimmed[1:], " ")
		r.emit(Blockquote{Text: text})
		return
	}

	if strings.Contains(line, "|") {
		r.flushList()
		if cells := splitTableCells(line); len(cells) > 1 {
			r.emit(TableRow{Cells: cells})
			return
		}
	}

	r.flushList()
	r.emit(Paragraph{Text: line})
}

func (r *renderer) toggleFence(line string) {
	if r.state == stateInFence {
		r.emit(CodeBlock{Language: r.language, Code: r.code.String()})
		r.code.Reset()
		r.language = ""
		r.state = stateNormal
		if len(r.items) > 0 {
			r.state = stateInList
		}
		return
	}
	// an open list keeps accumulating across the fence
	r.language = trimSpace(line[len(fenceDelimiter):])
	r.state = stateInFence
}

func (r *renderer) appendItem(item string) {
	r.items = append(r.items, item)
	r.state = stateInList
}

func (r *renderer) flushList() {
	if len(r.items) == 0 {
		return
	}
	r.emit(List{Items: r.items})
	r.items = nil
	if r.state == stateInList {
		r.state = stateNormal
	}
}

func (r *renderer) emit(b Block) {
	r.blocks = append(r.blocks, b)
}

// splitTableCells splits on '|' and keeps only non-empty trimmed pieces.
// Genuinely empty cells are dropped.
func splitTableCells(line string) []string {
	var cells []string
	for _, piece := range strings.Split(line, "|") {
		if cell := trimSpace(piece); cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}
