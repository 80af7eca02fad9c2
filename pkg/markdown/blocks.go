package markdown

// BlockKind identifies the variant of a Block.
type BlockKind string

const (
	KindHeading    BlockKind = "heading"
	KindParagraph  BlockKind = "paragraph"
	KindList       BlockKind = "list"
	KindBlockquote BlockKind = "blockquote"
	KindCodeBlock  BlockKind = "code"
	KindTableRow   BlockKind = "table_row"
)

// Block is one structural unit of a rendered document.
// The set of implementations is closed: Heading, Paragraph, List, Blockquote, CodeBlock, TableRow.
type Block interface {
	Kind() BlockKind
	isBlock()
}

// Heading carries the anchor used as an in-page navigation target.
type Heading struct {
	Level  int
	Anchor string
	Text   string
	Line   int // zero-based line index in the source
}

// Paragraph is a single non-blank line of text.
type Paragraph struct {
	Text string
}

// List holds bullet and numbered items alike; numbering is not kept.
type List struct {
	Items []string
}

// Blockquote is one quoted line.
type Blockquote struct {
	Text string
}

// CodeBlock holds fenced code verbatim, each line newline-terminated.
type CodeBlock struct {
	Language string
	Code     string
}

// TableRow is a flat row of non-empty pipe-separated cells.
type TableRow struct {
	Cells []string
}

func (Heading) Kind() BlockKind    { return KindHeading }
func (Paragraph) Kind() BlockKind  { return KindParagraph }
func (List) Kind() BlockKind       { return KindList }
func (Blockquote) Kind() BlockKind { return KindBlockquote }
func (CodeBlock) Kind() BlockKind  { return KindCodeBlock }
func (TableRow) Kind() BlockKind   { return KindTableRow }

func (Heading) isBlock()    {}
func (Paragraph) isBlock()  {}
func (List) isBlock()       {}
func (Blockquote) isBlock() {}
func (CodeBlock) isBlock()  {}
func (TableRow) isBlock()   {}
