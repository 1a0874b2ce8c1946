package cache

import (
	"errors"
	"io"
	"testing"
	"time"

	"notecal/internal/config"
	"notecal/internal/datemath"
	appLog "notecal/internal/log"
	"notecal/internal/model"
)

func init() {
	appLog.SetOutput(io.Discard)
}

// countingStore counts corpus reads so tests can assert rebuild frequency.
type countingStore struct {
	docs  []model.Document
	calls int
	err   error
}

func (s *countingStore) ListDocuments() ([]model.Document, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func dateStr(offsetDays int) string {
	return datemath.ToDateString(time.Now().AddDate(0, 0, offsetDays))
}

func newTestCache(store NoteStore) (*Cache, *time.Time) {
	c := New(store, config.DefaultSettings())
	now := time.Now()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetRebuildsOnceWithinTTL(t *testing.T) {
	store := &countingStore{docs: []model.Document{
		{ID: "a.md", Title: "a", Frontmatter: map[string]any{"date": dateStr(1)}},
	}}
	c, now := newTestCache(store)

	first := c.Get(nil)
	second := c.Get(nil)
	if store.calls != 1 {
		t.Fatalf("store read %d times within TTL, want 1", store.calls)
	}
	if first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("index sizes: %d, %d", first.Len(), second.Len())
	}

	// Advance past the TTL: next Get rebuilds.
	*now = now.Add(DefaultTTL)
	c.Get(nil)
	if store.calls != 2 {
		t.Fatalf("store read %d times after TTL, want 2", store.calls)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	store := &countingStore{}
	c, _ := newTestCache(store)

	c.Get(nil)
	c.Invalidate()
	c.Get(nil)
	if store.calls != 2 {
		t.Fatalf("store read %d times, want 2", store.calls)
	}
}

func TestUpdateSettingsInvalidates(t *testing.T) {
	store := &countingStore{docs: []model.Document{
		{ID: "a.md", Title: "a", InlineTags: []string{"work"},
			Frontmatter: map[string]any{"date": dateStr(1)}},
		{ID: "b.md", Title: "b",
			Frontmatter: map[string]any{"date": dateStr(1)}},
	}}
	c, _ := newTestCache(store)

	if got := c.Get(nil).Len(); got != 2 {
		t.Fatalf("unfiltered index has %d occurrences, want 2", got)
	}

	s := config.DefaultSettings()
	s.TagFilter = "work"
	c.UpdateSettings(s)

	if got := c.Get(nil).Len(); got != 1 {
		t.Fatalf("filtered index has %d occurrences, want 1", got)
	}
	if store.calls != 2 {
		t.Fatalf("store read %d times, want 2", store.calls)
	}
}

func TestWindowFiltering(t *testing.T) {
	store := &countingStore{docs: []model.Document{
		{ID: "a.md", Title: "a", Frontmatter: map[string]any{"date": dateStr(1)}},
		{ID: "b.md", Title: "b", Frontmatter: map[string]any{"date": dateStr(10)}},
	}}
	c, _ := newTestCache(store)

	w := &Window{Start: dateStr(0), End: dateStr(5)}
	got := c.Get(w)
	if got.Len() != 1 {
		t.Fatalf("windowed index has %d occurrences, want 1", got.Len())
	}
	if _, ok := got[dateStr(1)]; !ok {
		t.Error("expected the near date inside the window")
	}

	// The filtered view is a copy; mutating it must not corrupt the cache.
	got[dateStr(1)] = nil
	if c.Get(nil).Len() != 2 {
		t.Error("mutating a filtered view corrupted the cache")
	}
}

func TestRoutingThroughExpansion(t *testing.T) {
	anchor := dateStr(1)
	end := dateStr(3)
	store := &countingStore{docs: []model.Document{
		{ID: "range.md", Title: "range",
			Frontmatter: map[string]any{"date": anchor, "endDate": end}},
		{ID: "single.md", Title: "single",
			Frontmatter: map[string]any{"date": anchor}},
	}}
	c, _ := newTestCache(store)

	idx := c.Get(nil)
	if got := len(idx[anchor]); got != 2 {
		t.Errorf("%d occurrences at anchor, want 2", got)
	}
	// Corpus iteration order is preserved per date key.
	if idx[anchor][0].SourceID != "range.md" || idx[anchor][1].SourceID != "single.md" {
		t.Errorf("insertion order lost: %+v", idx[anchor])
	}
	if got := idx.Len(); got != 4 {
		t.Errorf("total occurrences = %d, want 4 (3 range + 1 single)", got)
	}
}

func TestListingFailureKeepsPreviousIndex(t *testing.T) {
	store := &countingStore{docs: []model.Document{
		{ID: "a.md", Title: "a", Frontmatter: map[string]any{"date": dateStr(1)}},
	}}
	c, now := newTestCache(store)

	if got := c.Get(nil).Len(); got != 1 {
		t.Fatalf("initial index has %d occurrences", got)
	}

	store.err = errors.New("store down")
	*now = now.Add(DefaultTTL)
	if got := c.Get(nil).Len(); got != 1 {
		t.Fatalf("index lost after listing failure: %d occurrences", got)
	}

	// A cold cache with a broken store still ends Populated (empty).
	c.Invalidate()
	if got := c.Get(nil); got == nil || got.Len() != 0 {
		t.Fatalf("cold cache with broken store: %v", got)
	}
}
