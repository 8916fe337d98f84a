package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/covidboard/internal/core"
	"github.com/JonMunkholm/covidboard/internal/web/views"
)

// handleIndex renders the overview page. It renders without figures while
// the first load is in flight.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.Overview()
	if err != nil && !errors.Is(err, core.ErrNotLoaded) {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.Page("COVID-19 overview", views.Index(g, s.service.Labels())).Render(r.Context(), w)
}

// handleCountryPage renders the summary card for one country module.
func (s *Server) handleCountryPage(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	out, err := s.service.Dispatch(r.Context(), label)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.Page(label, views.CountryCard(out)).Render(r.Context(), w)
}

// handleHealth reports the load status. It answers 503 until a snapshot
// is published.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.service.Status()
	status := http.StatusOK
	if !st.Loaded {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

// handleOverview returns the global headline figures.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	g, err := s.service.Overview()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleListLocations returns the selectable locations.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.service.Locations()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locs})
}

// handleLocation returns the latest figures for one location.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	l, err := s.service.Latest(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleListCountries returns the registered country labels.
func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"countries": s.service.Labels()})
}

// handleCountry dispatches a country module. An empty outcome is a 200
// with status "empty".
func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.Dispatch(r.Context(), chi.URLParam(r, "label"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLoadHistory returns recent load attempts, newest first.
func (s *Server) handleLoadHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	writeJSON(w, http.StatusOK, map[string]any{"loads": s.service.History(limit)})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// reloadResponse describes a completed reload.
type reloadResponse struct {
	LoadID     string `json:"load_id"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	DurationMS int64  `json:"duration_ms"`
}

// handleReload runs a load cycle. The reload is detached from client
// cancellation; the service applies its own load timeout.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(context.WithoutCancel(r.Context()), r)

	start := time.Now()
	snap, err := s.service.Reload(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reloadResponse{
		LoadID:     snap.LoadID.String(),
		Rows:       snap.Table.Len(),
		Columns:    len(snap.Table.Columns()),
		DurationMS: time.Since(start).Milliseconds(),
	})
}
