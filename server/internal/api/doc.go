// Package api implements the HTTP API of torstats-server.
//
// New(store, alerts) returns an http.Handler that serves:
//
//	GET /api/v1/health   state (ok|stale|unknown), snapshot age, alert count
//	GET /api/v1/summary  latest summary plus diagnostic hints; 503 before the first load
//	GET /api/v1/series   daily churn points; ?from= ?to= (YYYY-MM-DD) ?limit=N
//	GET /api/v1/alerts   firing and recently resolved alerts
//	GET /metrics         the summary as Prometheus gauges (text format)
//	GET /stats/*.png     charts written by the report
//
// All JSON endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//   - Read the current entry from the store
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
