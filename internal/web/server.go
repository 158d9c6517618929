// Package web serves the development site: a JSON API over the live post
// collection plus the built front-end with SPA fallback.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/logging"
	"github.com/sgx-labs/blog/internal/posts"
	"github.com/sgx-labs/blog/internal/visits"
)

const (
	defaultSearchLimit = 20
	defaultHeatLimit   = 15
	maxLimit           = 100
	maxQueryLen        = 10000
)

// PostSource supplies the current post collection.
type PostSource interface {
	Snapshot() *posts.Collection
}

// Options configures the server.
type Options struct {
	Addr          string
	StaticDir     string // built front-end; empty disables static serving
	LocalOnly     bool
	CORSOrigins   []string
	Version       string
	Title         string
	Welcome       string
	Sentinel      string
	KeywordCount  int
	KeywordMaxLen int
	Logger        logging.Logger
}

// Server is the development HTTP server.
type Server struct {
	src     PostSource
	tracker *visits.Tracker
	opts    Options
	grouper index.Grouper
	log     logging.Logger
}

// New creates a server. tracker may be nil, which disables visit endpoints.
func New(src PostSource, tracker *visits.Tracker, opts Options) *Server {
	return &Server{
		src:     src,
		tracker: tracker,
		opts:    opts,
		grouper: index.Grouper{Sentinel: opts.Sentinel},
		log:     logging.OrNop(opts.Logger),
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/site", s.handleSite)
	mux.HandleFunc("GET /api/posts", s.handlePosts)
	mux.HandleFunc("GET /api/posts/{slug}", s.handlePost)
	mux.HandleFunc("POST /api/posts/{slug}/visit", s.handleVisit)
	mux.HandleFunc("GET /api/archive", s.handleArchive)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/categories/{name}", s.handleCategory)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	mux.HandleFunc("GET /api/tags/{name}", s.handleTag)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/keywords", s.handleKeywords)
	mux.HandleFunc("GET /api/heat", s.handleHeat)
	mux.HandleFunc("GET /api/visits", s.handleVisits)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unknown endpoint")
	})
	mux.HandleFunc("/", s.handleStatic)

	var h http.Handler = securityHeaders(mux)
	if len(s.opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}).Handler(h)
	}
	if s.opts.LocalOnly {
		h = localhostOnly(h)
	}
	return s.requestLog(h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(os.Stderr, "Blog dev server: http://%s\n", listener.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Middleware ---

func localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.Trim(host, "[]")

		if host == "localhost" {
			next.ServeHTTP(w, r)
			return
		}
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self' https:")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debugf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// --- Handlers ---

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	c := s.src.Snapshot()
	writeJSON(w, map[string]any{
		"title":      s.opts.Title,
		"welcome":    s.opts.Welcome,
		"version":    s.opts.Version,
		"post_count": c.Len(),
		"tag_count":  len(index.AllTags(c.Posts)),
	})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, nonNil(s.src.Snapshot().Posts))
}

// postDetail is a post plus its reading statistics.
type postDetail struct {
	posts.Post
	Chars          int `json:"chars"`
	ReadingMinutes int `json:"reading_minutes"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	p, ok := index.Find(s.src.Snapshot(), r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	chars := index.CountChars(p.Content)
	writeJSON(w, postDetail{Post: p, Chars: chars, ReadingMinutes: index.ReadingMinutes(chars)})
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "visit tracking disabled")
		return
	}
	slug := r.PathValue("slug")
	if _, ok := index.Find(s.src.Snapshot(), slug); !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if id := r.URL.Query().Get("visitor"); id != "" {
		if _, err := s.tracker.RegisterVisitor(id); err != nil {
			writeError(w, http.StatusBadRequest, "invalid visitor id")
			return
		}
	}
	n, err := s.tracker.RecordPostVisit(slug)
	if err != nil {
		s.log.Errorf("record visit %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "could not record visit")
		return
	}
	writeJSON(w, map[string]any{"slug": slug, "count": n})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	groups := s.grouper.GroupByTime(s.src.Snapshot().Posts)
	if q := r.URL.Query().Get("q"); q != "" {
		groups = index.FilterTimeGroups(groups, q)
	}
	writeJSON(w, nonNil(groups))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, nonNil(s.grouper.CategoryCounts(s.src.Snapshot().Posts)))
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	list := s.grouper.PostsInCategory(s.src.Snapshot().Posts, name)
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, index.Bucket{Name: name, Posts: list})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, nonNil(index.TagCounts(s.src.Snapshot().Posts)))
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	list := index.PostsWithTag(s.src.Snapshot().Posts, name)
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	writeJSON(w, index.Bucket{Name: name, Posts: list})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "oversized query")
		return
	}
	limit := 0
	if strings.TrimSpace(query) == "" {
		limit = defaultSearchLimit
	}
	limit = parseLimit(r, limit)

	results := index.Search(s.src.Snapshot().Posts, query)
	total := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, map[string]any{
		"query":   query,
		"total":   total,
		"results": nonNil(results),
	})
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	n := s.opts.KeywordCount
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			n = parsed
		}
	}
	writeJSON(w, nonNil(index.ExtractKeywords(s.src.Snapshot().Posts, n, s.opts.KeywordMaxLen)))
}

func (s *Server) handleHeat(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int64{}
	if s.tracker != nil {
		v, err := s.tracker.PostVisits()
		if err != nil {
			s.log.Warnf("heat: post visits unavailable: %v", err)
		} else {
			counts = v
		}
	}
	c := s.src.Snapshot()
	ranked := index.HeatRanking(c.Posts, counts, r.URL.Query().Get("tag"))
	if limit := parseLimit(r, defaultHeatLimit); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	writeJSON(w, map[string]any{
		"tags":    nonNil(index.AllTags(c.Posts)),
		"entries": nonNil(ranked),
	})
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "visit tracking disabled")
		return
	}
	site, err := s.tracker.SiteVisits(r.Context())
	if err != nil {
		s.log.Errorf("site visits: %v", err)
		writeError(w, http.StatusInternalServerError, "visit counter unavailable")
		return
	}
	visitors, err := s.tracker.VisitorCount()
	if err != nil {
		s.log.Warnf("visits: visitor count unavailable: %v", err)
	}
	perPost, err := s.tracker.PostVisits()
	if err != nil {
		s.log.Warnf("visits: post visits unavailable: %v", err)
	}
	if perPost == nil {
		perPost = map[string]int64{}
	}
	writeJSON(w, map[string]any{
		"site":     site,
		"visitors": visitors,
		"posts":    perPost,
	})
}

// handleStatic serves the built front-end. Paths without a matching file
// fall back to index.html so client-side routes resolve.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.opts.StaticDir == "" {
		http.NotFound(w, r)
		return
	}
	clean := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.opts.StaticDir, filepath.FromSlash(clean))
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}
	indexPath := filepath.Join(s.opts.StaticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, indexPath)
}

func parseLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			return n
		}
	}
	return def
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
