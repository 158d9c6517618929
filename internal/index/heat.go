package index

import (
	"sort"

	"github.com/thoas/go-funk"

	"github.com/sgx-labs/blog/internal/posts"
)

// HeatEntry pairs a post with its visit count.
type HeatEntry struct {
	Post  posts.Post `json:"post"`
	Count int64      `json:"count"`
}

// HeatRanking orders posts by visit count, most visited first. Missing
// slugs count as zero and ties keep collection order. A non-empty tag
// restricts the ranking to posts carrying it.
func HeatRanking(list []posts.Post, visits map[string]int64, tag string) []HeatEntry {
	out := make([]HeatEntry, 0, len(list))
	for _, p := range list {
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		out = append(out, HeatEntry{Post: p, Count: visits[p.Slug]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// AllTags returns every distinct non-empty tag, sorted.
func AllTags(list []posts.Post) []string {
	var tags []string
	for _, p := range list {
		for _, t := range p.Meta.Tags {
			if t != "" {
				tags = append(tags, t)
			}
		}
	}
	tags = funk.UniqString(tags)
	sort.Strings(tags)
	return tags
}
