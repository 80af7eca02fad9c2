package markdown

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").OnElements("div", "pre", "code", "span", "blockquote", "ul")
	p.AllowAttrs("data-language").OnElements("pre")
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderHTML renders blocks to an HTML fragment. Every text segment is escaped,
// and the result is passed through a sanitizing policy that drops unsafe link targets.
func RenderHTML(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		writeBlockHTML(&b, block)
	}
	return htmlPolicy.Sanitize(b.String())
}

func writeBlockHTML(b *strings.Builder, block Block) {
	switch v := block.(type) {
	case Heading:
		tag := "h" + strconv.Itoa(v.Level)
		b.WriteString("<" + tag + ` id="` + html.EscapeString(v.Anchor) + `">`)
		b.WriteString(html.EscapeString(v.Text))
		b.WriteString("</" + tag + ">\n")
	case Paragraph:
		b.WriteString("<p>")
		writeSpansHTML(b, ParseInline(v.Text))
		b.WriteString("</p>\n")
	case List:
		b.WriteString("<ul>\n")
		for _, item := range v.Items {
			b.WriteString("<li>")
			writeSpansHTML(b, ParseInline(item))
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
	case Blockquote:
		b.WriteString("<blockquote>")
		writeSpansHTML(b, ParseInline(v.Text))
		b.WriteString("</blockquote>\n")
	case CodeBlock:
		label := v.Language
		if label == "" {
			label = "Code"
		}
		b.WriteString(`<pre data-language="` + html.EscapeString(label) + `">`)
		if v.Language != "" {
			b.WriteString(`<code class="language-` + html.EscapeString(v.Language) + `">`)
		} else {
			b.WriteString("<code>")
		}
		b.WriteString(html.EscapeString(v.Code))
		b.WriteString("</code></pre>\n")
	case TableRow:
		b.WriteString(`<div class="table-row">`)
		for _, cell := range v.Cells {
			b.WriteString(`<div class="table-cell">`)
			writeSpansHTML(b, ParseInline(cell))
			b.WriteString("</div>")
		}
		b.WriteString("</div>\n")
	}
}

func writeSpansHTML(b *strings.Builder, spans []Span) {
	for _, sp := range spans {
		text := html.EscapeString(sp.Text)
		switch sp.Kind {
		case SpanBold:
			b.WriteString("<strong>" + text + "</strong>")
		case SpanItalic:
			b.WriteString("<em>" + text + "</em>")
		case SpanCode:
			b.WriteString("<code>" + text + "</code>")
		case SpanLink:
			b.WriteString(`<a href="` + html.EscapeString(sp.URL) + `">` + text + "</a>")
		default:
			b.WriteString(text)
		}
	}
}

// Leaf is display text together with its resolved inline spans.
type Leaf struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

// Node is the JSON view of a Block, discriminated by Type.
type Node struct {
	Type     BlockKind `json:"type"`
	Level    int       `json:"level,omitempty"`
	Anchor   string    `json:"anchor,omitempty"`
	Text     string    `json:"text,omitempty"`
	Spans    []Span    `json:"spans,omitempty"`
	Items    []Leaf    `json:"items,omitempty"`
	Cells    []Leaf    `json:"cells,omitempty"`
	Language string    `json:"language,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// ToNodes converts blocks to their JSON view, resolving inline spans on leaf text.
func ToNodes(blocks []Block) []Node {
	nodes := make([]Node, 0, len(blocks))
	for _, block := range blocks {
		n := Node{Type: block.Kind()}
		switch v := block.(type) {
		case Heading:
			n.Level, n.Anchor, n.Text = v.Level, v.Anchor, v.Text
		case Paragraph:
			n.Text, n.Spans = v.Text, ParseInline(v.Text)
		case Blockquote:
			n.Text, n.Spans = v.Text, ParseInline(v.Text)
		case List:
			n.Items = toLeaves(v.Items)
		case TableRow:
			n.Cells = toLeaves(v.Cells)
		case CodeBlock:
			n.Language, n.Code = v.Language, v.Code
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func toLeaves(texts []string) []Leaf {
	leaves := make([]Leaf, len(texts))
	for i, t := range texts {
		leaves[i] = Leaf{Text: t, Spans: ParseInline(t)}
	}
	return leaves
}
