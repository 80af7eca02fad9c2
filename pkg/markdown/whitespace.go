package markdown

import (
	"strings"
	"unicode"
)

const byteOrderMark = '\uFEFF'

// spaceClass matches the same characters as isSpace inside a regexp.
const spaceClass = `[\s\v\p{Z}\x{FEFF}]`

// isSpace reports whether r is whitespace for trimming and anchor separators.
// The byte order mark counts, so a BOM-prefixed file keeps its first heading.
// NEL (U+0085) does not.
func isSpace(r rune) bool {
	if r == byteOrderMark {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
