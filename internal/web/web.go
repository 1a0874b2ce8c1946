// Package web exposes the calendar query engine over HTTP. Handlers hold
// the only lock in the system: the cache itself is single-threaded and the
// mutex here serializes every access, exactly at the concurrent boundary.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"notecal/internal/cache"
	"notecal/internal/config"
	"notecal/internal/datemath"
	"notecal/internal/ics"
	appLog "notecal/internal/log"
	"notecal/internal/model"
	"notecal/internal/query"
)

// Server provides the JSON API and the ICS feed.
type Server struct {
	cfg    *config.Config
	engine *query.Engine
	mux    *http.ServeMux

	mu     sync.Mutex
	events *cache.Cache
}

// NewServer constructs a Server around an event cache.
func NewServer(cfg *config.Config, events *cache.Cache) *Server {
	s := &Server{
		cfg:    cfg,
		engine: query.New(),
		mux:    http.NewServeMux(),
		events: events,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/calendar.ics", s.handleICS)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="notecal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// refDate reads the "date" query parameter, defaulting to today. The bool
// result reports whether a response was already written (bad input).
func refDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return datemath.Midnight(time.Now()), true
	}
	d, err := datemath.FromDateString(raw)
	if err != nil {
		http.Error(w, "invalid date parameter, want YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

type monthResponse struct {
	Reference string               `json:"reference"`
	Label     string               `json:"label"`
	Weekdays  []string             `json:"weekdays"`
	Weeks     []model.CalendarWeek `json:"weeks"`
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ref, ok := refDate(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	settings := s.events.Settings()
	index := s.events.Get(nil)
	weeks := s.engine.MonthWeeks(ref, index, settings.WeekStartsOn)
	s.mu.Unlock()

	loc := datemath.LocaleFor(settings.Locale)
	writeJSON(w, http.StatusOK, monthResponse{
		Reference: datemath.ToDateString(ref),
		Label:     datemath.FormatDate(ref, "MMMM YYYY", loc),
		Weekdays:  datemath.WeekdayNames(loc, settings.WeekStartsOn, true),
		Weeks:     weeks,
	})
}

type weekResponse struct {
	Reference string              `json:"reference"`
	Weekdays  []string            `json:"weekdays"`
	Days      []model.CalendarDay `json:"days"`
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	ref, ok := refDate(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	settings := s.events.Settings()
	index := s.events.Get(nil)
	days := s.engine.WeekGrid(ref, index, settings.WeekStartsOn)
	s.mu.Unlock()

	loc := datemath.LocaleFor(settings.Locale)
	writeJSON(w, http.StatusOK, weekResponse{
		Reference: datemath.ToDateString(ref),
		Weekdays:  datemath.WeekdayNames(loc, settings.WeekStartsOn, true),
		Days:      days,
	})
}

type dayResponse struct {
	Date        string             `json:"date"`
	Label       string             `json:"label"`
	Occurrences []model.Occurrence `json:"occurrences"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	ref, ok := refDate(w, r)
	if !ok {
		return
	}
	dateStr := datemath.ToDateString(ref)

	s.mu.Lock()
	settings := s.events.Settings()
	occs := query.DayOccurrences(dateStr, s.events.Get(nil))
	s.mu.Unlock()

	loc := datemath.LocaleFor(settings.Locale)
	writeJSON(w, http.StatusOK, dayResponse{
		Date:        dateStr,
		Label:       datemath.FormatDate(ref, settings.DateFormat, loc),
		Occurrences: occs,
	})
}

type eventsResponse struct {
	Dates  []string         `json:"dates"`
	Events model.EventIndex `json:"events"`
	Total  int              `json:"total"`
}

// handleEvents serves a raw windowed/filtered view of the index.
// Parameters: from, to (inclusive date bounds), q (title substring).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var window *cache.Window
	if q.Get("from") != "" || q.Get("to") != "" {
		for _, p := range []string{q.Get("from"), q.Get("to")} {
			if p == "" {
				continue
			}
			if _, err := datemath.FromDateString(p); err != nil {
				http.Error(w, "invalid from/to parameter, want YYYY-MM-DD", http.StatusBadRequest)
				return
			}
		}
		window = &cache.Window{Start: q.Get("from"), End: q.Get("to")}
	}

	s.mu.Lock()
	index := s.events.Get(window)
	s.mu.Unlock()

	index = query.FilterByText(index, q.Get("q"))
	writeJSON(w, http.StatusOK, eventsResponse{
		Dates:  query.SortedDates(index),
		Events: index,
		Total:  index.Len(),
	})
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	index := s.events.Get(nil)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(ics.Export(index)))
}

// handleRefresh drops the cache and rebuilds it warm, returning the new
// index size. Used by external watchers when the vault changes.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.events.Invalidate()
	index := s.events.Get(nil)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{
		"dates":       len(index),
		"occurrences": index.Len(),
	})
}

// Refresh invalidates and re-warms the cache; the cron scheduler calls
// this through the same lock the handlers use.
func (s *Server) Refresh() {
	s.mu.Lock()
	s.events.Invalidate()
	index := s.events.Get(nil)
	s.mu.Unlock()

	appLog.Info("scheduled refresh complete", "dates", len(index), "occurrences", index.Len())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("response encode failed", err)
	}
}
