// Package visits tracks per-post and site-wide visit counts and visitor ids.
package visits

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sgx-labs/blog/internal/logging"
	"github.com/sgx-labs/blog/internal/store"
)

const (
	fallbackCounter = "site_visits_fallback"
	visitorIDKey    = "visitor_id"
)

// Site visit sources.
const (
	SourceBadge = "badge"
	SourceLocal = "local"
)

// SiteCounter returns the site-wide visit count for a page id.
type SiteCounter interface {
	Fetch(ctx context.Context, pageID string) (int64, error)
}

// SiteStats is the result of a site visit lookup.
type SiteStats struct {
	Count  int64  `json:"count"`
	Source string `json:"source"`
}

// Tracker owns the visit store and this installation's visitor id.
type Tracker struct {
	db      *store.DB
	counter SiteCounter
	badgeID string
	log     logging.Logger

	mu        sync.Mutex
	visitorID string
}

// NewTracker creates a tracker. counter may be nil, in which case only the
// local fallback counter is used.
func NewTracker(db *store.DB, counter SiteCounter, badgeID string, log logging.Logger) *Tracker {
	return &Tracker{
		db:      db,
		counter: counter,
		badgeID: badgeID,
		log:     logging.OrNop(log),
	}
}

// RecordPostVisit counts one visit to slug and returns the new total.
func (t *Tracker) RecordPostVisit(slug string) (int64, error) {
	return t.db.IncrementPostVisit(slug)
}

// PostVisits returns visit counts keyed by slug.
func (t *Tracker) PostVisits() (map[string]int64, error) {
	return t.db.PostVisits()
}

// SiteVisits asks the badge service for the site count. When the service is
// unavailable the local fallback counter is incremented and returned instead.
func (t *Tracker) SiteVisits(ctx context.Context) (SiteStats, error) {
	if t.counter != nil && t.badgeID != "" {
		n, err := t.counter.Fetch(ctx, t.badgeID)
		if err == nil {
			return SiteStats{Count: n, Source: SourceBadge}, nil
		}
		t.log.Warnf("visits: badge fetch failed, using local counter: %v", err)
	}
	n, err := t.db.IncrementCounter(fallbackCounter)
	if err != nil {
		return SiteStats{}, err
	}
	return SiteStats{Count: n, Source: SourceLocal}, nil
}

// VisitorID returns the persisted visitor id, generating one on first use.
func (t *Tracker) VisitorID() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visitorID != "" {
		return t.visitorID, nil
	}
	id, err := t.db.MetaSetIfAbsent(visitorIDKey, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("visitor id: %w", err)
	}
	t.visitorID = id
	return id, nil
}

// RegisterVisitor adds id to the visitor set, or this installation's own id
// when id is empty. It reports whether the visitor was new.
func (t *Tracker) RegisterVisitor(id string) (bool, error) {
	if id == "" {
		var err error
		if id, err = t.VisitorID(); err != nil {
			return false, err
		}
	} else if _, err := uuid.Parse(id); err != nil {
		return false, fmt.Errorf("invalid visitor id %q: %w", id, err)
	}
	return t.db.AddVisitor(id)
}

// VisitorCount returns the number of distinct visitors.
func (t *Tracker) VisitorCount() (int64, error) {
	return t.db.VisitorCount()
}
