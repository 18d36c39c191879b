package render

import (
	"errors"
	"image"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/torstats/torstats/report/internal/archive"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("render: no data")

// NetworkChart draws the relay, exit, guard and total node counts over time.
func NetworkChart(rows []archive.DatedCounts, o Options) (image.Image, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	o = o.withDefaults(1400, 800)

	dates := make([]time.Time, len(rows))
	relay := make([]float64, len(rows))
	exit := make([]float64, len(rows))
	guard := make([]float64, len(rows))
	all := make([]float64, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
		relay[i] = float64(r.Counts.Relay)
		exit[i] = float64(r.Counts.Exit)
		guard[i] = float64(r.Counts.Guard)
		all[i] = float64(r.Counts.Total())
	}

	line := func(name string, ys []float64, c chart.Style) chart.TimeSeries {
		return chart.TimeSeries{Name: name, XValues: dates, YValues: ys, Style: c}
	}
	ch := chart.Chart{
		Title:  "Tor Network Size Over Time",
		Width:  o.Width,
		Height: o.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 30, Bottom: 40},
		},
		XAxis: dateAxis(dates[0], dates[len(dates)-1]),
		YAxis: countAxis("Node Count", 0, maxFloat(all)),
		Series: []chart.Series{
			line("Relay", relay, chart.Style{StrokeColor: ColorRelay, StrokeWidth: 2.5}),
			line("Exit", exit, chart.Style{StrokeColor: ColorExit, StrokeWidth: 2.5}),
			line("Guard", guard, chart.Style{StrokeColor: ColorGuard, StrokeWidth: 2.5}),
			line("All Nodes", all, chart.Style{StrokeColor: ColorAll, StrokeWidth: 2.5}),
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	img, err := renderPNG("network chart", &ch)
	if err != nil {
		return nil, err
	}
	return Stamp(img, o), nil
}

// NetworkPlaceholder draws an empty network chart for an archive without
// snapshots, so the combined image can still be assembled.
func NetworkPlaceholder(o Options) image.Image {
	o = o.withDefaults(1400, 800)
	return Stamp(placeholder(o.Width, o.Height, "Tor Network Size Over Time", "No data found"), o)
}
