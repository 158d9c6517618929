package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sgx-labs/blog/internal/posts"
)

// --- localhostOnly middleware ---

func TestLocalhostOnly_AllowsLocalhost(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := localhostOnly(inner)

	tests := []struct {
		name string
		host string
	}{
		{"localhost", "localhost:5173"},
		{"127.0.0.1", "127.0.0.1:5173"},
		{"ipv6 loopback", "[::1]:5173"},
		{"localhost no port", "localhost"},
		{"127.0.0.1 no port", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Host = tt.host
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("expected 200 for host %q, got %d", tt.host, w.Code)
			}
		})
	}
}

func TestLocalhostOnly_BlocksRemoteHosts(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := localhostOnly(inner)

	tests := []struct {
		name string
		host string
	}{
		{"external domain", "evil.com:5173"},
		{"external IP", "192.168.1.1:5173"},
		{"DNS rebinding", "attacker.example.com:5173"},
		{"internal IP", "10.0.0.1:5173"},
		{"cloud metadata", "169.254.169.254:5173"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Host = tt.host
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusForbidden {
				t.Errorf("expected 403 for host %q, got %d", tt.host, w.Code)
			}
		})
	}
}

// --- securityHeaders middleware ---

func TestSecurityHeaders_Present(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := securityHeaders(inner)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	tests := []struct {
		header string
		want   string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; connect-src 'self' https:"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := w.Header().Get(tt.header)
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

// --- Static serving ---

func TestHandleStatic_TraversalStaysInsideStaticDir(t *testing.T) {
	root := t.TempDir()
	static := filepath.Join(root, "dist")
	os.MkdirAll(static, 0o755)
	os.WriteFile(filepath.Join(static, "index.html"), []byte("spa"), 0o644)
	os.WriteFile(filepath.Join(root, "secret.txt"), []byte("secret"), 0o644)

	s := New(staticSource{}, nil, Options{StaticDir: static})
	for _, p := range []string{"/../secret.txt", "/..%2fsecret.txt", "/a/../../secret.txt"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.URL.Path = p
		w := httptest.NewRecorder()
		s.handleStatic(w, req)
		if strings.Contains(w.Body.String(), "secret") {
			t.Errorf("path %q leaked file outside static dir", p)
		}
	}
}

type staticSource struct{}

func (staticSource) Snapshot() *posts.Collection { return posts.NewCollection(nil) }

// --- full API handler: CORS behind the localhost guard ---

func localAPIHandler() http.Handler {
	s := New(fixedSource{testPosts()}, nil, Options{
		LocalOnly:   true,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return s.Handler()
}

func TestAPI_LocalOnlyRejectsRemoteHostEvenFromAllowedOrigin(t *testing.T) {
	h := localAPIHandler()
	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		req := httptest.NewRequest(method, "/api/site", nil)
		req.Host = "blog.example.com:5173"
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", method, rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("%s: remote host got Access-Control-Allow-Origin %q", method, got)
		}
	}
}

func TestAPI_LocalhostWithAllowedOriginGetsCORSAndSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/site", nil)
	req.Host = "localhost:5173"
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	localAPIHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing on CORS response")
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
}

func TestAPI_LocalhostWithUnknownOriginGetsNoCORS(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/site", nil)
	req.Host = "127.0.0.1:5173"
	req.Header.Set("Origin", "http://attacker.test")
	rr := httptest.NewRecorder()
	localAPIHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin got Access-Control-Allow-Origin %q", got)
	}
}

func TestAPI_PreflightForVisitPost(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/posts/hello-world/visit", nil)
	req.Host = "localhost:5173"
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	localAPIHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK && rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestAPI_UnknownEndpointKeepsSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/nope", nil)
	req.Host = "localhost:5173"
	rr := httptest.NewRecorder()
	localAPIHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q", rr.Header().Get("X-Frame-Options"))
	}
	if !strings.Contains(rr.Body.String(), "unknown endpoint") {
		t.Errorf("body = %q", rr.Body.String())
	}
}
