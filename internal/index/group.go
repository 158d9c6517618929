// Package index computes read-only views over a post collection: archive
// groupings, search, keyword frequencies, heat ranking and reading time.
// Every function is pure; inputs are never modified.
package index

import (
	"sort"

	"github.com/sgx-labs/blog/internal/posts"
)

// DefaultSentinel labels posts that lack the grouping key.
const DefaultSentinel = "Uncategorized"

// MonthGroup holds the posts of one year-month ("2024-06"). Undated posts
// use the year label as their month.
type MonthGroup struct {
	Month string       `json:"month"`
	Posts []posts.Post `json:"posts"`
}

// YearGroup holds the months of one year, newest first.
type YearGroup struct {
	Year   string       `json:"year"`
	Months []MonthGroup `json:"months"`
}

// Bucket is a named group of posts.
type Bucket struct {
	Name  string       `json:"name"`
	Posts []posts.Post `json:"posts"`
}

// Count is a label with its number of posts.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Grouper builds groupings with a configurable sentinel label.
type Grouper struct {
	Sentinel string
}

var defaultGrouper = Grouper{Sentinel: DefaultSentinel}

func (g Grouper) sentinel() string {
	if g.Sentinel == "" {
		return DefaultSentinel
	}
	return g.Sentinel
}

// GroupByTime buckets posts by year then year-month. Year and month keys,
// the sentinel included, are ordered by descending string comparison; posts
// inside a month are ordered by date descending.
func (g Grouper) GroupByTime(list []posts.Post) []YearGroup {
	sentinel := g.sentinel()
	months := map[string]map[string][]posts.Post{}
	for _, p := range list {
		date := p.Meta.Date
		year := prefix(date, 4)
		if year == "" {
			year = sentinel
		}
		month := prefix(date, 7)
		if month == "" {
			month = year
		}
		if months[year] == nil {
			months[year] = map[string][]posts.Post{}
		}
		months[year][month] = append(months[year][month], p)
	}

	years := sortedKeysDesc(months)
	out := make([]YearGroup, 0, len(years))
	for _, y := range years {
		yg := YearGroup{Year: y}
		for _, m := range sortedKeysDesc(months[y]) {
			ps := months[y][m]
			sort.SliceStable(ps, func(i, j int) bool {
				return ps[i].Meta.Date > ps[j].Meta.Date
			})
			yg.Months = append(yg.Months, MonthGroup{Month: m, Posts: ps})
		}
		out = append(out, yg)
	}
	return out
}

// GroupByCategory buckets posts by category, largest bucket first. Ties keep
// first-encounter order. Posts without a category land in the sentinel bucket.
func (g Grouper) GroupByCategory(list []posts.Post) []Bucket {
	sentinel := g.sentinel()
	return bucketize(list, func(p posts.Post) []string {
		if p.Meta.Category == "" {
			return []string{sentinel}
		}
		return []string{p.Meta.Category}
	})
}

// GroupByTag buckets posts by tag; a post with N tags appears in N buckets.
func (g Grouper) GroupByTag(list []posts.Post) []Bucket {
	return bucketize(list, func(p posts.Post) []string { return p.Meta.Tags })
}

// CategoryCounts returns the size of each category bucket.
func (g Grouper) CategoryCounts(list []posts.Post) []Count {
	return counts(g.GroupByCategory(list))
}

// PostsInCategory returns the posts filed under name. The sentinel matches
// posts without a category.
func (g Grouper) PostsInCategory(list []posts.Post, name string) []posts.Post {
	sentinel := g.sentinel()
	var out []posts.Post
	for _, p := range list {
		cat := p.Meta.Category
		if cat == "" {
			cat = sentinel
		}
		if cat == name {
			out = append(out, p)
		}
	}
	return out
}

// GroupByTime groups with the default sentinel.
func GroupByTime(list []posts.Post) []YearGroup { return defaultGrouper.GroupByTime(list) }

// GroupByCategory groups with the default sentinel.
func GroupByCategory(list []posts.Post) []Bucket { return defaultGrouper.GroupByCategory(list) }

// GroupByTag groups posts by tag.
func GroupByTag(list []posts.Post) []Bucket { return defaultGrouper.GroupByTag(list) }

// CategoryCounts counts categories with the default sentinel.
func CategoryCounts(list []posts.Post) []Count { return defaultGrouper.CategoryCounts(list) }

// PostsInCategory filters with the default sentinel.
func PostsInCategory(list []posts.Post, name string) []posts.Post {
	return defaultGrouper.PostsInCategory(list, name)
}

// TagCounts returns how many posts carry each tag, most used first.
func TagCounts(list []posts.Post) []Count {
	return counts(GroupByTag(list))
}

// PostsWithTag returns the posts carrying tag, in collection order.
func PostsWithTag(list []posts.Post, tag string) []posts.Post {
	var out []posts.Post
	for _, p := range list {
		if hasTag(p, tag) {
			out = append(out, p)
		}
	}
	return out
}

func hasTag(p posts.Post, tag string) bool {
	for _, t := range p.Meta.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func bucketize(list []posts.Post, keys func(posts.Post) []string) []Bucket {
	pos := map[string]int{}
	var buckets []Bucket
	for _, p := range list {
		for _, k := range keys(p) {
			i, ok := pos[k]
			if !ok {
				i = len(buckets)
				pos[k] = i
				buckets = append(buckets, Bucket{Name: k})
			}
			buckets[i].Posts = append(buckets[i].Posts, p)
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return len(buckets[i].Posts) > len(buckets[j].Posts)
	})
	return buckets
}

func counts(buckets []Bucket) []Count {
	out := make([]Count, len(buckets))
	for i, b := range buckets {
		out[i] = Count{Name: b.Name, Count: len(b.Posts)}
	}
	return out
}

// sortedKeysDesc orders keys descending by plain string comparison.
func sortedKeysDesc[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// prefix returns the first n runes of s, or s when shorter.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
