package search

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the tiktoken encoding used for chunk sizes
const DefaultEncoding = "cl100k_base"

var encodings = map[string]tokenizer.Encoding{
	"cl100k_base": tokenizer.Cl100kBase,
	"o200k_base":  tokenizer.O200kBase,
	"p50k_base":   tokenizer.P50kBase,
	"p50k_edit":   tokenizer.P50kEdit,
	"r50k_base":   tokenizer.R50kBase,
}

type loadedCodec struct {
	tokenizer.Codec
}

// codec is shared by every Index; nil until InitTokenizer succeeds.
var codec atomic.Pointer[loadedCodec]

// InitTokenizer loads the named encoding for CountTokens. Names it does not
// know load DefaultEncoding instead.
func InitTokenizer(encoding string) error {
	enc, ok := encodings[encoding]
	if !ok {
		enc = encodings[DefaultEncoding]
	}
	c, err := tokenizer.Get(enc)
	if err != nil {
		return err
	}
	codec.Store(&loadedCodec{Codec: c})
	return nil
}

// IsInitialized reports whether an encoding is loaded
func IsInitialized() bool {
	return codec.Load() != nil
}

// CountTokens returns the number of tokens in text, or -1 when no encoding
// is loaded or text cannot be encoded.
func CountTokens(text string) int {
	c := codec.Load()
	if c == nil {
		return -1
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return -1
	}
	return len(ids)
}

// tokenLen sizes text for the splitters: real tokens when an encoding is
// loaded, otherwise about four runes per token.
func tokenLen(text string) int {
	if n := CountTokens(text); n >= 0 {
		return n
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}
