package visits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgx-labs/blog/internal/store"
)

func newTestTracker(t *testing.T, counter SiteCounter, badgeID string) *Tracker {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTracker(db, counter, badgeID, nil)
}

func TestBadgeClient_ParsesFirstNumber(t *testing.T) {
	var gotPageID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageID = r.URL.Query().Get("page_id")
		w.Header().Set("Content-Type", "image/svg+xml")
		fmt.Fprint(w, `<svg><text>visitors</text><text>1234</text><text>99</text></svg>`)
	}))
	defer srv.Close()

	c := NewBadgeClient(srv.URL+"/badge", time.Second)
	n, err := c.Fetch(context.Background(), "me.github.io")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != 1234 {
		t.Errorf("count = %d, want 1234", n)
	}
	if gotPageID != "me.github.io" {
		t.Errorf("page_id = %q", gotPageID)
	}
}

func TestBadgeClient_Errors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}, nil},
		{"no number", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<svg>no digits</svg>")
		}, ErrNoCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			_, err := NewBadgeClient(srv.URL, time.Second).Fetch(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

type stubCounter struct {
	n   int64
	err error
}

func (s stubCounter) Fetch(context.Context, string) (int64, error) { return s.n, s.err }

func TestSiteVisits_BadgeSuccess(t *testing.T) {
	tr := newTestTracker(t, stubCounter{n: 42}, "site")
	stats, err := tr.SiteVisits(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats != (SiteStats{Count: 42, Source: SourceBadge}) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSiteVisits_FallbackIncrements(t *testing.T) {
	tr := newTestTracker(t, stubCounter{err: errors.New("offline")}, "site")
	for want := int64(1); want <= 3; want++ {
		stats, err := tr.SiteVisits(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if stats.Source != SourceLocal || stats.Count != want {
			t.Errorf("stats = %+v, want local %d", stats, want)
		}
	}
}

func TestSiteVisits_NoBadgeConfigured(t *testing.T) {
	tr := newTestTracker(t, nil, "")
	stats, err := tr.SiteVisits(context.Background())
	if err != nil || stats.Source != SourceLocal || stats.Count != 1 {
		t.Errorf("stats = %+v, err = %v", stats, err)
	}
}

func TestPostVisits(t *testing.T) {
	tr := newTestTracker(t, nil, "")
	tr.RecordPostVisit("a")
	n, err := tr.RecordPostVisit("a")
	if err != nil || n != 2 {
		t.Fatalf("RecordPostVisit = %d, %v", n, err)
	}
	visits, err := tr.PostVisits()
	if err != nil || visits["a"] != 2 {
		t.Errorf("PostVisits = %v, %v", visits, err)
	}
}

func TestVisitorID_StableAndRegistered(t *testing.T) {
	tr := newTestTracker(t, nil, "")
	id1, err := tr.VisitorID()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id1); err != nil {
		t.Errorf("visitor id %q is not a uuid", id1)
	}
	id2, _ := tr.VisitorID()
	if id1 != id2 {
		t.Errorf("visitor id changed: %q vs %q", id1, id2)
	}

	if added, err := tr.RegisterVisitor(""); err != nil || !added {
		t.Fatalf("RegisterVisitor self = %v, %v", added, err)
	}
	if added, _ := tr.RegisterVisitor(id1); added {
		t.Error("same visitor registered twice")
	}
	if _, err := tr.RegisterVisitor("not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
	tr.RegisterVisitor(uuid.NewString())
	if n, _ := tr.VisitorCount(); n != 2 {
		t.Errorf("VisitorCount = %d, want 2", n)
	}
}
