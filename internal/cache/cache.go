// Package cache owns the authoritative date-indexed occurrence map. The
// full-corpus scan is expensive, so its result is held for a short TTL and
// rebuilt on demand; consumers only ever see a fully built index.
package cache

import (
	"time"

	"notecal/internal/config"
	"notecal/internal/expand"
	"notecal/internal/extract"
	appLog "notecal/internal/log"
	"notecal/internal/model"
)

// NoteStore is the document source the cache rebuilds from.
type NoteStore interface {
	ListDocuments() ([]model.Document, error)
}

// DefaultTTL is how long a built index stays valid.
const DefaultTTL = 5 * time.Second

// Window bounds a query by normalized date strings, inclusive on both
// ends. An empty bound is unbounded. Comparison is lexical, which is
// ordering-correct for the fixed-width YYYY-MM-DD format.
type Window struct {
	Start string
	End   string
}

// Contains reports whether the date string falls inside the window.
func (w Window) Contains(dateStr string) bool {
	if w.Start != "" && dateStr < w.Start {
		return false
	}
	if w.End != "" && dateStr > w.End {
		return false
	}
	return true
}

// state is the explicit two-state variant: zero value is Empty, populated
// carries the index and its build time.
type state struct {
	populated bool
	index     model.EventIndex
	builtAt   time.Time
}

// Cache rebuilds and serves the occurrence index. It is single-threaded by
// contract; concurrent callers must serialize outside (the web layer does).
type Cache struct {
	store    NoteStore
	settings config.Settings
	ttl      time.Duration
	now      func() time.Time

	state state
}

// New creates a cache over the given store and settings snapshot.
func New(store NoteStore, settings config.Settings) *Cache {
	settings.Normalize()
	return &Cache{
		store:    store,
		settings: settings,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

// Settings returns the current settings snapshot.
func (c *Cache) Settings() config.Settings {
	return c.settings
}

// UpdateSettings installs a new settings snapshot and invalidates the
// index, since extraction behavior may have changed.
func (c *Cache) UpdateSettings(settings config.Settings) {
	settings.Normalize()
	c.settings = settings
	c.Invalidate()
}

// Invalidate forces the cache back to Empty; the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.state = state{}
}

// Get returns the occurrence index, rebuilding it first if the cache is
// empty or its TTL has elapsed. A nil window returns the live full index
// (read-only by convention); a window returns a freshly built filtered
// copy the caller may mutate freely.
func (c *Cache) Get(w *Window) model.EventIndex {
	if !c.state.populated || c.now().Sub(c.state.builtAt) >= c.ttl {
		c.rebuild()
	}

	if w == nil {
		return c.state.index
	}

	filtered := make(model.EventIndex)
	for dateStr, occs := range c.state.index {
		if w.Contains(dateStr) {
			filtered[dateStr] = append([]model.Occurrence(nil), occs...)
		}
	}
	return filtered
}

// rebuild scans the whole corpus and swaps in a fresh index. Individual
// document failures are logged and skipped; only a failed corpus listing
// keeps the previous index (refreshed, so a broken store does not force a
// rescan on every call).
func (c *Cache) rebuild() {
	started := c.now()

	docs, err := c.store.ListDocuments()
	if err != nil {
		appLog.Error("corpus listing failed", err)
		if c.state.populated {
			c.state.builtAt = started
			return
		}
		docs = nil
	}

	windowStart, windowEnd := expand.DefaultWindow(started)
	extractor := extract.New(c.settings)

	index := make(model.EventIndex)
	for _, doc := range docs {
		drafts := extractor.Extract(doc)
		for _, draft := range drafts {
			for _, occ := range expand.Draft(draft, windowStart, windowEnd) {
				index.Add(occ)
			}
		}
	}

	// Install only after the full corpus is processed; no caller ever
	// observes a partially built index.
	c.state = state{populated: true, index: index, builtAt: c.now()}

	appLog.Info("event index rebuilt",
		"documents", len(docs),
		"dates", len(index),
		"occurrences", index.Len(),
	)
}
