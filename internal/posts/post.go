// Package posts loads Markdown posts with front matter into an immutable,
// date-sorted collection.
package posts

// DefaultTitle is used when a post has no title in its front matter.
const DefaultTitle = "Untitled"

// PostMeta holds the normalized front matter of a post.
type PostMeta struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"` // YYYY-MM-DD or empty
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category,omitempty"`
}

// Post is a single loaded post.
type Post struct {
	Slug    string   `json:"slug"`
	Meta    PostMeta `json:"meta"`
	Content string   `json:"content"` // Markdown body without front matter
	HTML    string   `json:"html"`
}

// Collection is an immutable snapshot of loaded posts, sorted by date
// descending. Callers must not mutate Posts.
type Collection struct {
	Posts  []Post
	bySlug map[string]int
}

// NewCollection wraps already-sorted posts. When two posts share a slug,
// the one appearing later in the slice wins slug lookup.
func NewCollection(sorted []Post) *Collection {
	seq := make([]int, len(sorted))
	for i := range seq {
		seq[i] = i
	}
	return newCollection(sorted, seq)
}

// newCollection indexes sorted posts for slug lookup. seq[i] is the
// enumeration position of sorted[i]; among posts sharing a slug the highest
// enumeration position wins.
func newCollection(sorted []Post, seq []int) *Collection {
	c := &Collection{
		Posts:  sorted,
		bySlug: make(map[string]int, len(sorted)),
	}
	for i, p := range sorted {
		if cur, ok := c.bySlug[p.Slug]; ok && seq[cur] > seq[i] {
			continue
		}
		c.bySlug[p.Slug] = i
	}
	return c
}

// Len returns the number of posts.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Posts)
}

// BySlug returns the post with the given slug.
func (c *Collection) BySlug(slug string) (Post, bool) {
	if c == nil {
		return Post{}, false
	}
	i, ok := c.bySlug[slug]
	if !ok {
		return Post{}, false
	}
	return c.Posts[i], true
}
