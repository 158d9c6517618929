package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	stripMarkdown "github.com/writeas/go-strip-markdown"
)

// CharsPerMinute is the assumed reading speed.
const CharsPerMinute = 300

// CountChars counts the visible characters of a Markdown body, ignoring
// markup and whitespace.
func CountChars(content string) int {
	text := leadingBlock.ReplaceAllString(content, "")
	text = stripMarkdown.Strip(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return utf8.RuneCountInString(text)
}

// ReadingMinutes estimates reading time for chars characters, at least one minute.
func ReadingMinutes(chars int) int {
	m := (chars + CharsPerMinute - 1) / CharsPerMinute
	if m < 1 {
		return 1
	}
	return m
}
