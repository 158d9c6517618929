// Package mcp exposes the blog's read-only indices as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/posts"
)

const reloadCooldown = 10 * time.Second

// Library is the post collection the tools read from.
type Library interface {
	Snapshot() *posts.Collection
	Reload() *posts.Report
}

// Options configures the tool server.
type Options struct {
	Version       string
	PostsDir      string
	Sentinel      string
	KeywordCount  int
	KeywordMaxLen int
}

// Server holds the state shared by tool handlers.
type Server struct {
	lib     Library
	opts    Options
	grouper index.Grouper

	reloadMu   sync.Mutex
	lastReload time.Time
}

// New creates a tool server over lib.
func New(lib Library, opts Options) *Server {
	return &Server{
		lib:     lib,
		opts:    opts,
		grouper: index.Grouper{Sentinel: opts.Sentinel},
	}
}

// Serve runs the MCP server on stdio until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "blog",
		Version: s.opts.Version,
	}, nil)

	s.registerTools(server)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_posts",
		Description: "Search blog posts by a case-insensitive substring of title, description, body, date, tags or category.\n\nArgs:\n  query: Text to look for (empty lists the newest posts)\n  limit: Number of results (default 20, max 100)\n\nReturns matching posts with slug, title, date and tags.",
	}, s.handleSearchPosts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_post",
		Description: "Read one post by slug.\n\nArgs:\n  slug: Post slug as returned by search_posts\n  format: 'markdown' (default) or 'html'\n\nReturns the post metadata, reading time and body.",
	}, s.handleGetPost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List every tag with its number of posts, most used first.",
	}, s.handleListTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List every category with its number of posts, largest first. Posts without a category are grouped under the fallback label.",
	}, s.handleListCategories)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive",
		Description: "Return the year and month archive of post slugs, newest first.\n\nArgs:\n  query: Optional filter on title or date",
	}, s.handleArchive)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "top_keywords",
		Description: "Return the most frequent words and tags across all posts.\n\nArgs:\n  n: Number of keywords (default from config, max 500)",
	}, s.handleTopKeywords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reload_posts",
		Description: "Re-read every post from disk. Use after posts were added or edited outside the running session.\n\nReturns counts of loaded, skipped and duplicate posts.",
	}, s.handleReload)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "blog_stats",
		Description: "Summarize the blog: post, tag and category counts, newest post, and uncommitted post files when the blog is a git repository.",
	}, s.handleStats)
}

// Tool input types

type searchInput struct {
	Query string `json:"query" jsonschema:"Text to search for"`
	Limit int    `json:"limit" jsonschema:"Number of results (default 20, max 100)"`
}

type getInput struct {
	Slug   string `json:"slug" jsonschema:"Post slug"`
	Format string `json:"format,omitempty" jsonschema:"markdown or html"`
}

type archiveInput struct {
	Query string `json:"query,omitempty" jsonschema:"Filter on title or date"`
}

type keywordsInput struct {
	N int `json:"n,omitempty" jsonschema:"Number of keywords"`
}

type emptyInput struct{}

// postSummary is the compact form of a post returned in listings.
type postSummary struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Date     string   `json:"date,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

func summarize(list []posts.Post) []postSummary {
	out := make([]postSummary, 0, len(list))
	for _, p := range list {
		out = append(out, postSummary{
			Slug:     p.Slug,
			Title:    p.Meta.Title,
			Date:     p.Meta.Date,
			Tags:     p.Meta.Tags,
			Category: p.Meta.Category,
		})
	}
	return out
}

// Tool handlers

func (s *Server) handleSearchPosts(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	if len(input.Query) > 10000 {
		return textResult("Error: query too long."), nil, nil
	}
	limit := clampLimit(input.Limit, 20, 100)
	results := index.Search(s.lib.Snapshot().Posts, input.Query)
	if len(results) == 0 {
		return textResult(fmt.Sprintf("No posts match %q.", input.Query)), nil, nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return jsonResult(summarize(results)), nil, nil
}

func (s *Server) handleGetPost(ctx context.Context, req *mcp.CallToolRequest, input getInput) (*mcp.CallToolResult, any, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return textResult("Error: slug is required."), nil, nil
	}
	p, ok := index.Find(s.lib.Snapshot(), slug)
	if !ok {
		return textResult(fmt.Sprintf("Post not found: %s", slug)), nil, nil
	}

	body := p.Content
	switch strings.ToLower(input.Format) {
	case "", "markdown", "md":
	case "html":
		body = p.HTML
	default:
		return textResult("Error: format must be 'markdown' or 'html'."), nil, nil
	}

	chars := index.CountChars(p.Content)
	return jsonResult(map[string]any{
		"slug":            p.Slug,
		"meta":            p.Meta,
		"chars":           chars,
		"reading_minutes": index.ReadingMinutes(chars),
		"body":            body,
	}), nil, nil
}

func (s *Server) handleListTags(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	counts := index.TagCounts(s.lib.Snapshot().Posts)
	if len(counts) == 0 {
		return textResult("No tags yet."), nil, nil
	}
	return jsonResult(counts), nil, nil
}

func (s *Server) handleListCategories(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	counts := s.grouper.CategoryCounts(s.lib.Snapshot().Posts)
	if len(counts) == 0 {
		return textResult("No posts yet."), nil, nil
	}
	return jsonResult(counts), nil, nil
}

type archiveMonth struct {
	Month string   `json:"month"`
	Slugs []string `json:"slugs"`
}

type archiveYear struct {
	Year   string         `json:"year"`
	Months []archiveMonth `json:"months"`
}

func (s *Server) handleArchive(ctx context.Context, req *mcp.CallToolRequest, input archiveInput) (*mcp.CallToolResult, any, error) {
	groups := index.FilterTimeGroups(s.grouper.GroupByTime(s.lib.Snapshot().Posts), input.Query)
	if len(groups) == 0 {
		return textResult("No posts in the archive match."), nil, nil
	}
	out := make([]archiveYear, 0, len(groups))
	for _, yg := range groups {
		ay := archiveYear{Year: yg.Year}
		for _, mg := range yg.Months {
			am := archiveMonth{Month: mg.Month}
			for _, p := range mg.Posts {
				am.Slugs = append(am.Slugs, p.Slug)
			}
			ay.Months = append(ay.Months, am)
		}
		out = append(out, ay)
	}
	return jsonResult(out), nil, nil
}

func (s *Server) handleTopKeywords(ctx context.Context, req *mcp.CallToolRequest, input keywordsInput) (*mcp.CallToolResult, any, error) {
	n := clampLimit(input.N, s.opts.KeywordCount, 500)
	kws := index.ExtractKeywords(s.lib.Snapshot().Posts, n, s.opts.KeywordMaxLen)
	if len(kws) == 0 {
		return textResult("No keywords yet."), nil, nil
	}
	return jsonResult(kws), nil, nil
}

func (s *Server) handleReload(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if since := time.Since(s.lastReload); since < reloadCooldown {
		remaining := int((reloadCooldown - since).Seconds()) + 1
		return jsonResult(map[string]string{
			"error": fmt.Sprintf("Reload cooldown active. Try again in %ds.", remaining),
		}), nil, nil
	}
	s.lastReload = time.Now()

	report := s.lib.Reload()
	return jsonResult(map[string]any{
		"posts":      report.Collection.Len(),
		"skipped":    nonNil(report.Skipped),
		"duplicates": nonNil(report.Duplicates),
	}), nil, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	c := s.lib.Snapshot()
	stats := map[string]any{
		"posts":      c.Len(),
		"tags":       len(index.AllTags(c.Posts)),
		"categories": len(s.grouper.CategoryCounts(c.Posts)),
		"version":    s.opts.Version,
	}
	if c.Len() > 0 {
		newest := c.Posts[0]
		stats["newest"] = postSummary{Slug: newest.Slug, Title: newest.Meta.Title, Date: newest.Meta.Date}
	}
	if s.opts.PostsDir != "" {
		if g := postsGitStatus(s.opts.PostsDir); g != nil {
			stats["git"] = g
		}
	}
	return jsonResult(stats), nil, nil
}

// Helpers

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("Error encoding result: %v", err))
	}
	return textResult(string(data))
}

func clampLimit(n, defaultVal, max int) int {
	if n <= 0 {
		return defaultVal
	}
	if n > max {
		return max
	}
	return n
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
