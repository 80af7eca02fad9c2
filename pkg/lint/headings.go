package lint

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CommonMarkHeading is a heading as a CommonMark parser sees it.
// Line is the zero-based source line of the heading text, or -1 when unknown.
type CommonMarkHeading struct {
	Level int
	Text  string
	Line  int
}

// ExtractHeadings parses markdown with goldmark and returns every heading in document order.
func ExtractHeadings(markdown []byte) []CommonMarkHeading {
	reader := text.NewReader(markdown)
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var headings []CommonMarkHeading
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		collectText(heading, markdown, &buf)

		line := -1
		if lines := heading.Lines(); lines.Len() > 0 {
			line = bytes.Count(markdown[:lines.At(0).Start], []byte("\n"))
		}

		headings = append(headings, CommonMarkHeading{
			Level: heading.Level,
			Text:  buf.String(),
			Line:  line,
		})
		return ast.WalkSkipChildren, nil
	})

	return headings
}

// collectText appends all text segments below n, so emphasis and code spans keep their words.
func collectText(n ast.Node, source []byte, buf *bytes.Buffer) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		default:
			collectText(child, source, buf)
		}
	}
}
