package index

import "github.com/sgx-labs/blog/internal/posts"

// Find looks a post up by slug.
func Find(c *posts.Collection, slug string) (posts.Post, bool) {
	return c.BySlug(slug)
}
