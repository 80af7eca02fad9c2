package markdown

import "strings"

// SpanKind identifies an inline span variant.
type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanBold   SpanKind = "bold"
	SpanItalic SpanKind = "italic"
	SpanCode   SpanKind = "code"
	SpanLink   SpanKind = "link"
)

// Span is a styled or plain run of leaf text. URL is set only for links.
type Span struct {
	Kind SpanKind `json:"kind"`
	Text string   `json:"text"`
	URL  string   `json:"url,omitempty"`
}

// ParseInline resolves bold (**x**), italic (*x*), inline code (`x`) and
// links ([label](url)) in a single left-to-right scan. When bold and italic
// could both start at a position, bold wins. Span contents are not re-scanned,
// and markers without a non-empty closing partner stay literal text.
func ParseInline(text string) []Span {
	if text == "" {
		return nil
	}

	var spans []Span
	plainStart := 0
	i := 0

	flushPlain := func(end int) {
		if end > plainStart {
			spans = append(spans, Span{Kind: SpanText, Text: text[plainStart:end]})
		}
	}

	for i < len(text) {
		span, width, ok := matchSpan(text[i:])
		if !ok {
			i++
			continue
		}
		flushPlain(i)
		spans = append(spans, span)
		i += width
		plainStart = i
	}
	flushPlain(len(text))

	return spans
}

// matchSpan tries every span rule at the start of s, in precedence order.
func matchSpan(s string) (Span, int, bool) {
	switch s[0] {
	case '*':
		if strings.HasPrefix(s, "**") {
			if end := strings.Index(s[2:], "**"); end > 0 {
				return Span{Kind: SpanBold, Text: s[2 : 2+end]}, end + 4, true
			}
		}
		if end := strings.IndexByte(s[1:], '*'); end > 0 {
			return Span{Kind: SpanItalic, Text: s[1 : 1+end]}, end + 2, true
		}
	case '`':
		if end := strings.IndexByte(s[1:], '`'); end > 0 {
			return Span{Kind: SpanCode, Text: s[1 : 1+end]}, end + 2, true
		}
	case '[':
		return matchLink(s)
	}
	return Span{}, 0, false
}

func matchLink(s string) (Span, int, bool) {
	labelEnd := strings.IndexByte(s[1:], ']')
	if labelEnd <= 0 {
		return Span{}, 0, false
	}
	rest := s[1+labelEnd+1:]
	if !strings.HasPrefix(rest, "(") {
		return Span{}, 0, false
	}
	urlEnd := strings.IndexByte(rest[1:], ')')
	if urlEnd <= 0 {
		return Span{}, 0, false
	}
	width := 1 + labelEnd + 1 + 1 + urlEnd + 1
	return Span{Kind: SpanLink, Text: s[1 : 1+labelEnd], URL: rest[1 : 1+urlEnd]}, width, true
}

// PlainText flattens spans back to their visible text.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}
