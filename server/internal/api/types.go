package api

import (
	"time"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/server/internal/alerts"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "ok", "stale" (last snapshot older than StaleAfterDays) or
	// "unknown" (no summary loaded yet).
	State           string     `json:"state"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	LoadedAt        *time.Time `json:"loaded_at,omitempty"`
	LastDate        *time.Time `json:"last_date,omitempty"`
	SnapshotAgeDays *int       `json:"snapshot_age_days,omitempty"`
	Snapshots       int        `json:"snapshots"`
	AlertCount      int        `json:"alert_count"`
}

// SummaryResponse is the payload for GET /api/v1/summary and the data of
// every WebSocket message.
type SummaryResponse struct {
	Summary     *types.Summary   `json:"summary"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	LoadedAt    string           `json:"loaded_at,omitempty"` // RFC3339
	ServedAt    string           `json:"served_at"`           // RFC3339
}

// SeriesResponse is the payload for GET /api/v1/series.
type SeriesResponse struct {
	Points []types.DailyPoint `json:"points"`
	Count  int                `json:"count"`
}

// AlertsResponse is the payload for GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts []*alerts.Alert `json:"alerts"`
	Firing int             `json:"firing"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
