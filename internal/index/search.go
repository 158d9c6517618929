package index

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sgx-labs/blog/internal/posts"
)

// normalizeQuery case-folds s and collapses runs of whitespace.
func normalizeQuery(c cases.Caser, s string) string {
	return strings.Join(strings.Fields(c.String(s)), " ")
}

// Match reports whether post contains query in its title, description,
// content, date, tags or category. A blank query matches every post.
func Match(post posts.Post, query string) bool {
	return newMatcher(query).match(post)
}

// Search returns the posts matching query, in collection order.
func Search(list []posts.Post, query string) []posts.Post {
	m := newMatcher(query)
	if m.q == "" {
		return append([]posts.Post(nil), list...)
	}
	var out []posts.Post
	for _, p := range list {
		if m.match(p) {
			out = append(out, p)
		}
	}
	return out
}

type matcher struct {
	fold cases.Caser
	q    string
}

func newMatcher(query string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.q = normalizeQuery(m.fold, query)
	return m
}

func (m *matcher) match(p posts.Post) bool {
	if m.q == "" {
		return true
	}
	fields := []string{
		p.Meta.Title,
		p.Meta.Description,
		p.Content,
		p.Meta.Date,
		strings.Join(p.Meta.Tags, " "),
		p.Meta.Category,
	}
	for _, f := range fields {
		if strings.Contains(normalizeQuery(m.fold, f), m.q) {
			return true
		}
	}
	return false
}

// MatchTitleOrDate is the lighter filter used by the archive sidebar: only
// the title and date are inspected.
func MatchTitleOrDate(post posts.Post, query string) bool {
	fold := cases.Fold()
	q := strings.TrimSpace(fold.String(query))
	if q == "" {
		return true
	}
	return strings.Contains(fold.String(post.Meta.Title), q) ||
		strings.Contains(fold.String(post.Meta.Date), q)
}

// FilterTimeGroups keeps only posts matching query by title or date and
// drops months and years left empty.
func FilterTimeGroups(groups []YearGroup, query string) []YearGroup {
	if strings.TrimSpace(query) == "" {
		return groups
	}
	var out []YearGroup
	for _, yg := range groups {
		var months []MonthGroup
		for _, mg := range yg.Months {
			var kept []posts.Post
			for _, p := range mg.Posts {
				if MatchTitleOrDate(p, query) {
					kept = append(kept, p)
				}
			}
			if len(kept) > 0 {
				months = append(months, MonthGroup{Month: mg.Month, Posts: kept})
			}
		}
		if len(months) > 0 {
			out = append(out, YearGroup{Year: yg.Year, Months: months})
		}
	}
	return out
}
