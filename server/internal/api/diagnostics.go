package api

import (
	"fmt"
	"sort"
	"time"

	"github.com/torstats/torstats/pkg/types"
)

// StaleAfterDays is the snapshot age from which the archive counts as stale.
const StaleAfterDays = 2

// Churn rate thresholds, in percent of the previous snapshot.
const (
	churnWarningPct  = 5
	churnCriticalPct = 10
)

// DiagnosticHint is one human-readable insight about the collected data.
// The UI displays these as chips next to the charts.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on click/hover.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives diagnostic hints from a summary.
// Hints are ordered critical first, then warnings, then info.
func computeDiagnostics(s *types.Summary, now time.Time) []DiagnosticHint {
	hints := []DiagnosticHint{}
	if s == nil {
		return hints
	}

	// ── Archive freshness ────────────────────────────────────────────────────
	if age, ok := snapshotAge(s, now); ok && age >= StaleAfterDays {
		v := float64(age)
		level := "warning"
		if age >= 7 {
			level = "critical"
		}
		hints = append(hints, DiagnosticHint{
			Key:   "stale_archive",
			Level: level,
			Title: fmt.Sprintf("Last snapshot %d days old", age),
			Detail: fmt.Sprintf(
				"The most recent snapshot directory is dated %s. "+
					"The daily collection job has probably stopped; "+
					"check the job that fills the history directory.",
				s.LastDate.Format("2006-01-02")),
			Value: &v,
		})
	}

	// ── Not enough history ───────────────────────────────────────────────────
	if s.Churn.Snapshots < 2 {
		hints = append(hints, DiagnosticHint{
			Key:   "warming_up",
			Level: "info",
			Title: "Collecting history",
			Detail: fmt.Sprintf(
				"Churn is computed between consecutive snapshots and %d snapshot(s) "+
					"are archived so far. Figures appear once two days are available.",
				s.Churn.Snapshots),
		})
	}

	// ── Latest churn ─────────────────────────────────────────────────────────
	if p, ok := s.Latest(); ok {
		rate := p.ChurnRate
		switch {
		case rate >= churnCriticalPct:
			hints = append(hints, churnHint("critical", rate, p))
		case rate >= churnWarningPct:
			hints = append(hints, churnHint("warning", rate, p))
		}
		if p.Departed > p.New {
			v := float64(p.Departed - p.New)
			hints = append(hints, DiagnosticHint{
				Key:   "shrinking",
				Level: "info",
				Title: "Network shrinking",
				Detail: fmt.Sprintf(
					"On %s %d nodes departed and %d appeared, a net loss of %.0f.",
					p.Date.Format("2006-01-02"), p.Departed, p.New, v),
				Value: &v,
			})
		}
	}

	// ── Current inventory ────────────────────────────────────────────────────
	if s.Active.Total() == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "empty_inventory",
			Level:  "warning",
			Title:  "No active nodes",
			Detail: "The active directory holds no relay, exit or guard lists, so the distribution chart is empty.",
		})
	}
	if s.GeoNodes == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "no_geo",
			Level:  "info",
			Title:  "No location data",
			Detail: "No geolocation file was found in the active directory, so the map shows no nodes.",
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank(hints[i].Level) < levelRank(hints[j].Level)
	})
	return hints
}

func churnHint(level string, rate float64, p types.DailyPoint) DiagnosticHint {
	v := rate
	return DiagnosticHint{
		Key:   "high_churn",
		Level: level,
		Title: fmt.Sprintf("%.1f%% churn", rate),
		Detail: fmt.Sprintf(
			"On %s %.1f%% of the previous day's nodes changed (%d new, %d departed). "+
				"A jump like this often follows a consensus change or a mass restart.",
			p.Date.Format("2006-01-02"), rate, p.New, p.Departed),
		Value: &v,
	}
}

// snapshotAge returns the whole days between the last snapshot and now.
func snapshotAge(s *types.Summary, now time.Time) (int, bool) {
	if s.LastDate == nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ly, lm, ld := s.LastDate.Date()
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

func levelRank(l string) int {
	switch l {
	case "critical":
		return 0
	case "warning":
		return 1
	default:
		return 2
	}
}
