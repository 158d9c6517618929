package posts

import (
	"fmt"
	"strings"
	"time"

	"github.com/karlseguin/typed"
)

const dateLen = len("2006-01-02")

// NormalizeMeta coerces loosely typed front matter into a PostMeta.
// It never fails; unusable values collapse to their zero form.
func NormalizeMeta(raw map[string]any) PostMeta {
	m := typed.New(raw)
	return PostMeta{
		Title:       scalarString(m, "title"),
		Date:        normalizeDate(m["date"]),
		Description: scalarString(m, "description"),
		Tags:        normalizeTags(m["tags"]),
		Category:    normalizeCategory(m),
	}
}

func scalarString(m typed.Typed, key string) string {
	if s, ok := m.StringIf(key); ok {
		return s
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// normalizeDate renders time values as YYYY-MM-DD in UTC and truncates
// anything else to its first ten characters.
func normalizeDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.UTC().Format("2006-01-02")
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.UTC().Format("2006-01-02")
	default:
		return truncateRunes(stringify(v), dateLen)
	}
}

func normalizeTags(v any) []string {
	tags := []string{}
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if el == nil {
				continue
			}
			if s := strings.TrimSpace(stringify(el)); s != "" {
				tags = append(tags, s)
			}
		}
	case []string:
		for _, el := range t {
			if s := strings.TrimSpace(el); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// normalizeCategory prefers a non-empty "category" over "categories".
func normalizeCategory(m typed.Typed) string {
	if v, ok := m["category"]; ok && v != nil {
		if s := stringify(v); s != "" {
			return s
		}
	}
	switch c := m["categories"].(type) {
	case []any:
		for _, el := range c {
			if el == nil {
				continue
			}
			if s := stringify(el); s != "" {
				return s
			}
		}
	case []string:
		for _, s := range c {
			if s != "" {
				return s
			}
		}
	case string:
		return c
	}
	return ""
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.UTC().Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
