package posts

import (
	"regexp"
	"strings"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// SlugFromFilename derives a post slug from its file name: the .md extension
// and an optional leading YYYY-MM-DD- prefix are removed.
func SlugFromFilename(name string) string {
	name = strings.TrimSuffix(name, ".md")
	return datePrefix.ReplaceAllString(name, "")
}
