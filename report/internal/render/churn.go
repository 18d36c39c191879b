package render

import (
	"fmt"
	"image"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/report/internal/composite"
)

const (
	churnTopTitle    = "Daily Node Appearance and Disappearance"
	churnBottomTitle = "Daily Node Churn Rate (Departed / Total)"
)

// ChurnStatsLines are the lines of the statistics box under the churn chart.
func ChurnStatsLines(s types.ChurnSummary) []string {
	return []string{
		"Total unique nodes: " + formatCount(s.UniqueNodes),
		fmt.Sprintf("Avg lifetime: %.1f days", s.AvgLifetimeDays),
		fmt.Sprintf("Avg new/day: %.0f  |  Avg departed/day: %.0f", s.AvgNewPerDay, s.AvgDepartedPerDay),
		fmt.Sprintf("Avg churn rate: %.2f%%", s.AvgChurnRate),
	}
}

// ChurnChart draws two stacked panels over the daily series with the first
// snapshot left out: new nodes above and departed nodes below a zero line,
// then the churn rate as a filled area. The statistics box goes underneath.
func ChurnChart(points []types.DailyPoint, s types.ChurnSummary, o Options) (image.Image, error) {
	o = o.withDefaults(1400, 1000)

	stats := textPanel(o.Width, ChurnStatsLines(s), colorStatsBox)
	panelH := max(100, (o.Height-stats.Bounds().Dy())/2)

	var top, bottom image.Image
	if len(points) < 2 {
		msg := "at least two snapshots are needed"
		top = placeholder(o.Width, panelH, churnTopTitle, msg)
		bottom = placeholder(o.Width, panelH, churnBottomTitle, msg)
	} else {
		pts := points[1:]
		dates := make([]time.Time, len(pts))
		newNodes := make([]float64, len(pts))
		departed := make([]float64, len(pts))
		rate := make([]float64, len(pts))
		for i, p := range pts {
			dates[i] = p.Date
			newNodes[i] = float64(p.New)
			departed[i] = -float64(p.Departed)
			rate[i] = p.ChurnRate
		}

		var err error
		if top, err = churnMovementPanel(dates, newNodes, departed, o.Width, panelH); err != nil {
			return nil, err
		}
		if bottom, err = churnRatePanel(dates, rate, o.Width, panelH); err != nil {
			return nil, err
		}
	}

	return Stamp(composite.Stack([]image.Image{top, bottom, stats}, 0), o), nil
}

func churnMovementPanel(dates []time.Time, newNodes, departed []float64, w, h int) (image.Image, error) {
	lo := 0.0
	for _, d := range departed {
		lo = min(lo, d)
	}
	y := countAxis("Node Count", lo, maxFloat(newNodes))
	y.GridLines = []chart.GridLine{{
		Value: 0,
		Style: chart.Style{StrokeColor: colorBlack, StrokeWidth: 1},
	}}

	ch := chart.Chart{
		Title:      churnTopTitle,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 30, Bottom: 20}},
		XAxis:      dateAxis(dates[0], dates[len(dates)-1]),
		YAxis:      y,
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "New Nodes",
				XValues: dates,
				YValues: newNodes,
				Style:   chart.Style{StrokeColor: ColorExit, StrokeWidth: 1.5, FillColor: ColorExit},
			},
			chart.TimeSeries{
				Name:    "Departed Nodes",
				XValues: dates,
				YValues: departed,
				Style:   chart.Style{StrokeColor: ColorRelay, StrokeWidth: 1.5, FillColor: ColorRelay},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return renderPNG("churn movement panel", &ch)
}

func churnRatePanel(dates []time.Time, rate []float64, w, h int) (image.Image, error) {
	hi := maxFloat(rate)
	if hi == 0 {
		hi = 1
	}

	ch := chart.Chart{
		Title:      churnBottomTitle,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 30, Bottom: 20}},
		XAxis:      dateAxis(dates[0], dates[len(dates)-1]),
		YAxis: chart.YAxis{
			Name:  "Churn Rate (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: hi * 1.05},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Churn Rate",
				XValues: dates,
				YValues: rate,
				Style: chart.Style{
					StrokeColor: ColorGuard,
					StrokeWidth: 2.5,
					FillColor:   withAlpha(ColorGuard, 178),
					DotColor:    ColorGuard,
					DotWidth:    4,
				},
			},
		},
	}
	return renderPNG("churn rate panel", &ch)
}
