package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/torstats/torstats/pkg/promfile"
	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/server/internal/alerts"
	"github.com/torstats/torstats/server/internal/store"
)

// dateLayout is the format of the from/to query parameters.
const dateLayout = "2006-01-02"

// AlertSource lists the current alerts. *alerts.Engine implements it.
type AlertSource interface {
	Active() []*alerts.Alert
}

// Handler is the HTTP handler for the REST API, /metrics and /stats/.
// It reads the latest summary from the store and returns JSON responses.
type Handler struct {
	store  *store.Store
	alerts AlertSource
	mux    *http.ServeMux
	now    func() time.Time
}

// New creates a Handler wired to the given store and alert source and
// registers all routes. al may be nil, in which case no alerts are listed.
func New(st *store.Store, al AlertSource) http.Handler {
	h := &Handler{store: st, alerts: al, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/summary", h.summary)
	h.mux.HandleFunc("/api/v1/series", h.series)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/metrics", h.metrics)
	h.mux.Handle("/stats/", h.charts())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BuildSummary assembles the summary payload from the store's current entry.
// The ws hub uses it for every broadcast.
func BuildSummary(st *store.Store, now time.Time) SummaryResponse {
	resp := SummaryResponse{
		Diagnostics: []DiagnosticHint{},
		ServedAt:    now.UTC().Format(time.RFC3339),
	}
	e, ok := st.Get()
	if !ok {
		return resp
	}
	resp.Summary = e.Summary
	resp.Diagnostics = computeDiagnostics(e.Summary, now)
	resp.LoadedAt = e.LoadedAt.UTC().Format(time.RFC3339)
	return resp
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: archive freshness and alert count.
// It answers 200 even before a summary is loaded, with state "unknown".
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{State: "unknown", AlertCount: h.firing()}
	e, ok := h.store.Get()
	if !ok {
		jsonResp(w, http.StatusOK, resp)
		return
	}

	s := e.Summary
	gen, loaded := s.GeneratedAt, e.LoadedAt
	resp.GeneratedAt = &gen
	resp.LoadedAt = &loaded
	resp.LastDate = s.LastDate
	resp.Snapshots = s.Churn.Snapshots
	resp.State = "ok"
	if age, ok := snapshotAge(s, h.now()); ok {
		resp.SnapshotAgeDays = &age
		if age >= StaleAfterDays {
			resp.State = "stale"
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// summary returns GET /api/v1/summary: the full summary plus diagnostics.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.store.Get(); !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no summary loaded yet")
		return
	}
	jsonResp(w, http.StatusOK, BuildSummary(h.store, h.now()))
}

// series returns GET /api/v1/series: the daily churn points, optionally
// filtered by ?from=YYYY-MM-DD and ?to=YYYY-MM-DD (inclusive) and cut to the
// last ?limit=N points.
func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	var from, to time.Time
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			jsonErr(w, http.StatusBadRequest, "from: want YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			jsonErr(w, http.StatusBadRequest, "to: want YYYY-MM-DD")
			return
		}
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			jsonErr(w, http.StatusBadRequest, "limit: want a non-negative integer")
			return
		}
	}

	points := []types.DailyPoint{}
	if e, ok := h.store.Get(); ok {
		for _, p := range e.Summary.Series {
			if !from.IsZero() && p.Date.Before(from) {
				continue
			}
			if !to.IsZero() && p.Date.After(to) {
				continue
			}
			points = append(points, p)
		}
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	jsonResp(w, http.StatusOK, SeriesResponse{Points: points, Count: len(points)})
}

// listAlerts returns GET /api/v1/alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := []*alerts.Alert{}
	if h.alerts != nil {
		out = append(out, h.alerts.Active()...)
	}
	jsonResp(w, http.StatusOK, AlertsResponse{Alerts: out, Firing: countFiring(out)})
}

// metrics returns GET /metrics: the summary as Prometheus gauges.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	e, ok := h.store.Get()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no summary loaded yet")
		return
	}
	w.Header().Set("Content-Type", promfile.ContentType)
	if err := promfile.Encode(w, e.Summary); err != nil {
		slog.Error("api: encode metrics", "err", err)
	}
}

// charts serves GET /stats/<name>.png from the stats directory. Other files,
// directory listings and non-GET methods are refused.
func (h *Handler) charts() http.Handler {
	files := http.StripPrefix("/stats/", http.FileServer(http.Dir(h.store.Dir())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if path.Ext(r.URL.Path) != ".png" {
			jsonErr(w, http.StatusNotFound, "not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) firing() int {
	if h.alerts == nil {
		return 0
	}
	return countFiring(h.alerts.Active())
}

func countFiring(as []*alerts.Alert) int {
	n := 0
	for _, a := range as {
		if a.State == "firing" {
			n++
		}
	}
	return n
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
