// Package runner executes the report jobs against a configuration.
//
// Jobs, in the order All runs them:
//
//	network  archive line counts per day → stats/network-chart.png
//	pie      active inventory role split → stats/node-distribution-pie.png
//	geo      active geolocation file     → stats/geolocation-map.png
//	churn    archive churn analysis      → stats/churn-rate.png
//	combine  network + pie + map         → stats/combined-analytics.png
//
// All also writes stats/summary.json and stats/churn.prom. The pie chart and
// the map are copied into today's history directory when history copies are
// enabled.
//
// A Runner serialises its jobs, so the watch command may trigger runs from
// several goroutines.
package runner
