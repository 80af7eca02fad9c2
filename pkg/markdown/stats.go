package markdown

import "strings"

// DefaultWordsPerMinute is the reading speed used for read-time estimates.
const DefaultWordsPerMinute = 200

// WordCount counts whitespace-separated words.
func WordCount(content string) int {
	return len(strings.FieldsFunc(content, isSpace))
}

// ReadTime estimates minutes to read content, rounded up.
func ReadTime(content string, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := WordCount(content)
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
