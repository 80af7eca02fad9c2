package markdown

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLStructure(t *testing.T) {
	doc := Parse("# Title\nSome **bold** text.\n- one\n- `two`\n\n> quote\n| a | b |")

	out := RenderHTML(doc.Blocks)

	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "<p>Some <strong>bold</strong> text.</p>")
	assert.Contains(t, out, "<li>one</li>")
	assert.Contains(t, out, "<li><code>two</code></li>")
	assert.Contains(t, out, "<blockquote>quote</blockquote>")
	assert.Contains(t, out, `<div class="table-cell">a</div>`)
}

func TestRenderHTMLEscapesText(t *testing.T) {
	out := RenderHTML(RenderDocument("# <b>Head</b>\n<script>alert(1)</script>\n*<img src=x onerror=alert(1)>*"))

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderHTMLDropsUnsafeLinks(t *testing.T) {
	out := RenderHTML(RenderDocument("[click](javascript:alert(1)) and [ok](https://example.com)"))

	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "noreferrer")
}

func TestRenderHTMLCodeBlock(t *testing.T) {
	out := RenderHTML(RenderDocument("```go\nif a < b {}\n```"))

	assert.Contains(t, out, `class="language-go"`)
	assert.Contains(t, out, "if a &lt; b {}")
}

func TestToNodes(t *testing.T) {
	nodes := ToNodes(RenderDocument("## Sub\nhi *there*\n- [x](y)\n```sh\nls\n```"))

	require.Len(t, nodes, 4)
	assert.Equal(t, Node{Type: KindHeading, Level: 2, Anchor: "sub", Text: "Sub"}, nodes[0])
	assert.Equal(t, KindParagraph, nodes[1].Type)
	assert.Equal(t, []Span{{Kind: SpanText, Text: "hi "}, {Kind: SpanItalic, Text: "there"}}, nodes[1].Spans)
	assert.Equal(t, KindCodeBlock, nodes[2].Type)
	assert.Equal(t, "sh", nodes[2].Language)
	assert.Equal(t, KindList, nodes[3].Type)
	assert.Equal(t, []Span{{Kind: SpanLink, Text: "x", URL: "y"}}, nodes[3].Items[0].Spans)

	data, err := json.Marshal(nodes[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"heading","level":2,"anchor":"sub","text":"Sub"}`, string(data))
}
