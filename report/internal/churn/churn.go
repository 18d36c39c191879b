package churn

import (
	"time"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/report/internal/archive"
)

const hoursPerDay = 24

// Lifetimes is the first/last sighting of every identifier ever seen.
type Lifetimes struct {
	FirstSeen map[string]time.Time
	LastSeen  map[string]time.Time
}

// Days returns the lifetime of id in whole days and whether id was seen.
func (lt *Lifetimes) Days(id string) (int, bool) {
	first, ok := lt.FirstSeen[id]
	if !ok {
		return 0, false
	}
	return daysBetween(first, lt.LastSeen[id]), true
}

// All returns the lifetime in days of every identifier. Order is unspecified.
func (lt *Lifetimes) All() []int {
	out := make([]int, 0, len(lt.FirstSeen))
	for id, first := range lt.FirstSeen {
		out = append(out, daysBetween(first, lt.LastSeen[id]))
	}
	return out
}

// Len is the number of distinct identifiers seen.
func (lt *Lifetimes) Len() int { return len(lt.FirstSeen) }

// BuildLifetimes scans snaps in order. snaps must be sorted by date, as
// returned by archive.Load.
func BuildLifetimes(snaps []*archive.Snapshot) *Lifetimes {
	lt := &Lifetimes{
		FirstSeen: make(map[string]time.Time),
		LastSeen:  make(map[string]time.Time),
	}
	for _, s := range snaps {
		for _, r := range types.Roles {
			for id := range s.Roles[r] {
				if _, ok := lt.FirstSeen[id]; !ok {
					lt.FirstSeen[id] = s.Date
				}
				lt.LastSeen[id] = s.Date
			}
		}
	}
	return lt
}

// Series holds one entry per snapshot, index-aligned.
type Series struct {
	Dates     []time.Time
	New       []int
	Departed  []int
	ChurnRate []float64
}

// Len is the number of entries.
func (s Series) Len() int { return len(s.Dates) }

// Points returns the series as a slice of types.DailyPoint.
func (s Series) Points() []types.DailyPoint {
	out := make([]types.DailyPoint, s.Len())
	for i := range s.Dates {
		out[i] = types.DailyPoint{
			Date:      s.Dates[i],
			New:       s.New[i],
			Departed:  s.Departed[i],
			ChurnRate: s.ChurnRate[i],
		}
	}
	return out
}

// SkipFirst returns the series without its first entry. An empty or
// single-entry series yields an empty series.
func (s Series) SkipFirst() Series {
	if s.Len() <= 1 {
		return Series{}
	}
	return Series{
		Dates:     s.Dates[1:],
		New:       s.New[1:],
		Departed:  s.Departed[1:],
		ChurnRate: s.ChurnRate[1:],
	}
}

// DailySeries computes new/departed/churn-rate per snapshot.
func DailySeries(snaps []*archive.Snapshot) Series {
	n := len(snaps)
	out := Series{
		Dates:     make([]time.Time, 0, n),
		New:       make([]int, 0, n),
		Departed:  make([]int, 0, n),
		ChurnRate: make([]float64, 0, n),
	}

	var prev archive.Set
	for i, s := range snaps {
		cur := s.Union()

		var added, departed int
		var rate float64
		if i == 0 {
			added = len(cur)
		} else {
			added = cur.Minus(prev)
			departed = prev.Minus(cur)
			rate = churnRate(departed, len(prev))
		}

		out.Dates = append(out.Dates, s.Date)
		out.New = append(out.New, added)
		out.Departed = append(out.Departed, departed)
		out.ChurnRate = append(out.ChurnRate, rate)
		prev = cur
	}
	return out
}

// Summarize computes the aggregate statistics. Per-day averages exclude the
// first entry of series.
func Summarize(lt *Lifetimes, series Series) types.ChurnSummary {
	out := types.ChurnSummary{
		Snapshots:               series.Len(),
		UniqueNodes:             lt.Len(),
		AveragesExcludeFirstDay: true,
	}

	days := lt.All()
	if len(days) > 0 {
		minDays, maxDays, sum := days[0], days[0], 0
		for _, d := range days {
			sum += d
			if d < minDays {
				minDays = d
			}
			if d > maxDays {
				maxDays = d
			}
		}
		out.AvgLifetimeDays = float64(sum) / float64(len(days))
		out.MinLifetimeDays = minDays
		out.MaxLifetimeDays = maxDays
	}

	steady := series.SkipFirst()
	out.AvgNewPerDay = meanInt(steady.New)
	out.AvgDepartedPerDay = meanInt(steady.Departed)
	out.AvgChurnRate = mean(steady.ChurnRate)
	return out
}

// Result bundles everything derived from one archive scan.
type Result struct {
	Lifetimes *Lifetimes
	Series    Series
	Summary   types.ChurnSummary
}

// Analyze runs BuildLifetimes, DailySeries and Summarize over snaps.
func Analyze(snaps []*archive.Snapshot) *Result {
	lt := BuildLifetimes(snaps)
	series := DailySeries(snaps)
	return &Result{
		Lifetimes: lt,
		Series:    series,
		Summary:   Summarize(lt, series),
	}
}

// churnRate returns departed as a percentage of prevSize, 0 if prevSize is 0.
func churnRate(departed, prevSize int) float64 {
	if prevSize == 0 {
		return 0
	}
	return float64(departed) / float64(prevSize) * 100
}

// daysBetween counts calendar days from a to b. Snapshot dates are midnight
// UTC so the hour count is always a multiple of 24.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / hoursPerDay)
}

func meanInt(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
