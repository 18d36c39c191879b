package render

import (
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

const tickDateLayout = "2006-01-02"

// dateAxis spans first..last with month ticks, or evenly spaced day ticks
// for archives shorter than two months. A single date is padded by a day on
// each side.
func dateAxis(first, last time.Time) chart.XAxis {
	if !last.After(first) {
		first = first.AddDate(0, 0, -1)
		last = last.AddDate(0, 0, 1)
	}

	var ticks []chart.Tick
	add := func(t time.Time) {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format(tickDateLayout)})
	}

	days := int(last.Sub(first).Hours() / 24)
	if days >= 62 {
		m := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, first.Location())
		if m.Before(first) {
			m = m.AddDate(0, 1, 0)
		}
		for ; !m.After(last); m = m.AddDate(0, 1, 0) {
			add(m)
		}
	} else {
		step := max(1, int(math.Ceil(float64(days)/8)))
		for d := first; !d.After(last); d = d.AddDate(0, 0, step) {
			add(d)
		}
	}

	return chart.XAxis{
		ValueFormatter: chart.TimeValueFormatterWithFormat(tickDateLayout),
		Range: &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first),
			Max: chart.TimeToFloat64(last),
		},
		Ticks:          ticks,
		TickStyle:      chart.Style{TextRotationDegrees: 45},
		GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
		GridLines:      gridLines(ticks),
	}
}

// countAxis is a y axis from lo to hi with thousands separators. The range
// never collapses to zero width.
func countAxis(name string, lo, hi float64) chart.YAxis {
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return chart.YAxis{
		Name: name,
		Range: &chart.ContinuousRange{
			Min: lo,
			Max: hi + pad,
		},
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return formatCount(int(math.Round(f)))
			}
			return ""
		},
		GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
	}
}

func gridLines(ticks []chart.Tick) []chart.GridLine {
	out := make([]chart.GridLine, len(ticks))
	for i, t := range ticks {
		out[i] = chart.GridLine{Value: t.Value}
	}
	return out
}

func maxFloat(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}

func toFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
