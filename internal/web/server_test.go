package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sgx-labs/blog/internal/posts"
	"github.com/sgx-labs/blog/internal/store"
	"github.com/sgx-labs/blog/internal/visits"
)

type fixedSource struct{ c *posts.Collection }

func (f fixedSource) Snapshot() *posts.Collection { return f.c }

func testPosts() *posts.Collection {
	return posts.NewCollection([]posts.Post{
		{Slug: "hello-world", Meta: posts.PostMeta{Title: "Hello", Date: "2024-06-15", Tags: []string{"go"}, Category: "dev"}, Content: "# Hi\nworld", HTML: "<h1 id=\"hi\">Hi</h1>\n<p>world</p>\n"},
		{Slug: "older", Meta: posts.PostMeta{Title: "Older", Date: "2023-05-01", Tags: []string{"go", "life"}}, Content: "older body"},
		{Slug: "undated", Meta: posts.PostMeta{Title: "Undated", Tags: []string{}}, Content: "nothing"},
	})
}

func newTestServer(t *testing.T, withTracker bool) (*Server, *visits.Tracker) {
	t.Helper()
	var tr *visits.Tracker
	if withTracker {
		db, err := store.OpenMemory()
		if err != nil {
			t.Fatalf("open memory db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		tr = visits.NewTracker(db, nil, "", nil)
	}
	s := New(fixedSource{testPosts()}, tr, Options{Title: "Test Blog", Version: "vtest", KeywordCount: 10})
	return s, tr
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

func TestHandleSite(t *testing.T) {
	s, _ := newTestServer(t, false)
	rr := do(t, s.Handler(), "GET", "/api/site")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	decode(t, rr, &payload)
	if payload["title"] != "Test Blog" || payload["version"] != "vtest" || payload["post_count"] != float64(3) {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandlePost(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	rr := do(t, h, "GET", "/api/posts/hello-world")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var detail struct {
		Slug           string `json:"slug"`
		HTML           string `json:"html"`
		ReadingMinutes int    `json:"reading_minutes"`
	}
	decode(t, rr, &detail)
	if detail.Slug != "hello-world" || !strings.Contains(detail.HTML, "<p>world</p>") || detail.ReadingMinutes != 1 {
		t.Errorf("detail = %+v", detail)
	}

	rr = do(t, h, "GET", "/api/posts/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var e map[string]string
	decode(t, rr, &e)
	if e["error"] == "" {
		t.Error("expected JSON error body")
	}
}

func TestHandlePosts_ListsInOrder(t *testing.T) {
	s, _ := newTestServer(t, false)
	var list []posts.Post
	decode(t, do(t, s.Handler(), "GET", "/api/posts"), &list)
	if len(list) != 3 || list[0].Slug != "hello-world" || list[2].Slug != "undated" {
		t.Errorf("list = %+v", list)
	}
}

func TestHandleSearch(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	var res struct {
		Total   int          `json:"total"`
		Results []posts.Post `json:"results"`
	}
	decode(t, do(t, h, "GET", "/api/search?q=WORLD"), &res)
	if res.Total != 1 || res.Results[0].Slug != "hello-world" {
		t.Errorf("search = %+v", res)
	}

	res.Results = nil
	decode(t, do(t, h, "GET", "/api/search?q="), &res)
	if res.Total != 3 || len(res.Results) != 3 {
		t.Errorf("empty search = %+v", res)
	}

	res.Results = nil
	decode(t, do(t, h, "GET", "/api/search?q=&limit=1"), &res)
	if len(res.Results) != 1 {
		t.Errorf("limited search returned %d", len(res.Results))
	}

	res.Results = nil
	decode(t, do(t, h, "GET", "/api/search?q=zzzz"), &res)
	if res.Total != 0 || res.Results == nil {
		t.Errorf("no-match search = %+v", res)
	}
}

func TestHandleArchiveAndTaxonomies(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	var archive []struct {
		Year string `json:"year"`
	}
	decode(t, do(t, h, "GET", "/api/archive"), &archive)
	if len(archive) != 3 || archive[0].Year != "Uncategorized" || archive[1].Year != "2024" {
		t.Errorf("archive = %+v", archive)
	}

	var tags []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	decode(t, do(t, h, "GET", "/api/tags"), &tags)
	if len(tags) != 2 || tags[0].Name != "go" || tags[0].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}

	if rr := do(t, h, "GET", "/api/tags/life"); rr.Code != http.StatusOK {
		t.Errorf("tag bucket status %d", rr.Code)
	}
	if rr := do(t, h, "GET", "/api/tags/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("missing tag status %d", rr.Code)
	}

	var bucket struct {
		Name  string       `json:"name"`
		Posts []posts.Post `json:"posts"`
	}
	decode(t, do(t, h, "GET", "/api/categories/Uncategorized"), &bucket)
	if len(bucket.Posts) != 2 {
		t.Errorf("uncategorized bucket = %+v", bucket)
	}
}

func TestHandleVisitAndHeat(t *testing.T) {
	s, tr := newTestServer(t, true)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		if rr := do(t, h, "POST", "/api/posts/older/visit"); rr.Code != http.StatusOK {
			t.Fatalf("visit status %d", rr.Code)
		}
	}
	if rr := do(t, h, "POST", "/api/posts/nope/visit"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown slug visit status %d", rr.Code)
	}
	if rr := do(t, h, "POST", "/api/posts/older/visit?visitor=bad"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad visitor status %d", rr.Code)
	}

	if got, _ := tr.PostVisits(); got["older"] != 2 {
		t.Errorf("stored visits = %v", got)
	}

	var heat struct {
		Tags    []string `json:"tags"`
		Entries []struct {
			Post  posts.Post `json:"post"`
			Count int64      `json:"count"`
		} `json:"entries"`
	}
	decode(t, do(t, h, "GET", "/api/heat"), &heat)
	if len(heat.Entries) != 3 || heat.Entries[0].Post.Slug != "older" || heat.Entries[0].Count != 2 {
		t.Errorf("heat = %+v", heat.Entries)
	}
	if len(heat.Tags) != 2 {
		t.Errorf("heat tags = %v", heat.Tags)
	}

	var site map[string]any
	decode(t, do(t, h, "GET", "/api/visits"), &site)
	if sv, ok := site["site"].(map[string]any); !ok || sv["source"] != "local" {
		t.Errorf("visits = %+v", site)
	}
}

func TestVisitEndpointsWithoutTracker(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()
	if rr := do(t, h, "POST", "/api/posts/older/visit"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("visit status %d", rr.Code)
	}
	if rr := do(t, h, "GET", "/api/heat"); rr.Code != http.StatusOK {
		t.Errorf("heat should work without tracker, got %d", rr.Code)
	}
}

func TestHandleKeywords(t *testing.T) {
	s, _ := newTestServer(t, false)
	var kws []struct {
		Word  string `json:"word"`
		Count int    `json:"count"`
	}
	decode(t, do(t, s.Handler(), "GET", "/api/keywords?n=2"), &kws)
	if len(kws) != 2 || kws[0].Word != "go" {
		t.Errorf("keywords = %+v", kws)
	}
}

func TestUnknownAPIEndpoint(t *testing.T) {
	s, _ := newTestServer(t, false)
	rr := do(t, s.Handler(), "GET", "/api/nothing-here")
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Header().Get("Content-Type"), "json") {
		t.Errorf("status %d, content-type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
}

func TestStaticSPAFallback(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644)
	os.MkdirAll(filepath.Join(dir, "assets"), 0o755)
	os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644)

	s := New(fixedSource{testPosts()}, nil, Options{StaticDir: dir})
	h := s.Handler()

	if rr := do(t, h, "GET", "/assets/app.js"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "console.log") {
		t.Errorf("asset: %d %q", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, "GET", "/post/hello-world"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "app") {
		t.Errorf("fallback: %d %q", rr.Code, rr.Body.String())
	}
}

func TestCORS(t *testing.T) {
	s := New(fixedSource{testPosts()}, nil, Options{CORSOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest("GET", "/api/site", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestLocalOnlyOption(t *testing.T) {
	s := New(fixedSource{testPosts()}, nil, Options{LocalOnly: true})
	req := httptest.NewRequest("GET", "/api/site", nil)
	req.Host = "evil.example.com"
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...any) {}
func (l *recordingLogger) Infof(string, ...any) {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Errorf(string, ...any) {}

func TestHandleVisits_LogsPartialFailures(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, stmt := range []string{`DROP TABLE visitors`, `DROP TABLE post_visits`} {
		if _, err := db.Conn().Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	logger := &recordingLogger{}
	s := New(fixedSource{testPosts()}, visits.NewTracker(db, nil, "", nil), Options{Logger: logger})

	rr := do(t, s.Handler(), "GET", "/api/visits")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Visitors int64            `json:"visitors"`
		Posts    map[string]int64 `json:"posts"`
	}
	decode(t, rr, &body)
	if body.Visitors != 0 || body.Posts == nil || len(body.Posts) != 0 {
		t.Errorf("body = %+v", body)
	}
	if len(logger.warnings) != 2 {
		t.Fatalf("warnings = %q, want 2", logger.warnings)
	}
	if !strings.Contains(logger.warnings[0], "visitor count") || !strings.Contains(logger.warnings[1], "post visits") {
		t.Errorf("warnings = %q", logger.warnings)
	}
}
