package index

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/sgx-labs/blog/internal/posts"
)

// Keyword extraction defaults.
const (
	DefaultKeywordCount  = 60
	DefaultKeywordMaxLen = 12
	minKeywordLen        = 2
)

// Keyword is a word and the number of times it was seen.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

var (
	leadingBlock = regexp.MustCompile(`^---[\s\S]*?---`)
	headingMark  = regexp.MustCompile(`#{1,6}\s`)
	emphasisMark = regexp.MustCompile(`\*\*?|__?`)
	linkSyntax   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// stripMarkup removes front matter, heading and emphasis markers, link
// targets and backticks from text.
func stripMarkup(text string) string {
	text = leadingBlock.ReplaceAllString(text, "")
	text = headingMark.ReplaceAllString(text, "")
	text = emphasisMark.ReplaceAllString(text, "")
	text = linkSyntax.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "`", "")
	return whitespace.ReplaceAllString(text, " ")
}

// isSeparator matches whitespace, punctuation and symbols.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// ExtractKeywords tallies tags and words across posts and returns the n most
// frequent. Each tag counts once per post carrying it; words come from the
// title, description and body, must be at least two characters and are cut
// to maxLen characters. Ties keep first-seen order. Non-positive n or maxLen
// select the defaults.
func ExtractKeywords(list []posts.Post, n, maxLen int) []Keyword {
	if n <= 0 {
		n = DefaultKeywordCount
	}
	if maxLen <= 0 {
		maxLen = DefaultKeywordMaxLen
	}

	pos := map[string]int{}
	var words []Keyword
	add := func(w string) {
		i, ok := pos[w]
		if !ok {
			i = len(words)
			pos[w] = i
			words = append(words, Keyword{Word: w})
		}
		words[i].Count++
	}

	for _, p := range list {
		for _, tag := range p.Meta.Tags {
			if t := strings.TrimSpace(tag); t != "" {
				add(t)
			}
		}
		text := stripMarkup(p.Meta.Title + " " + p.Meta.Description + " " + p.Content)
		for _, tok := range strings.FieldsFunc(text, isSeparator) {
			r := []rune(tok)
			if len(r) < minKeywordLen {
				continue
			}
			if len(r) > maxLen {
				r = r[:maxLen]
			}
			add(string(r))
		}
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Count > words[j].Count
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
