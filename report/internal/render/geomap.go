package render

import (
	"image"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/torstats/torstats/report/internal/geo"
)

// Plot window of the map in degrees. Antarctica is cut off.
const (
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinLatitude  = -60.0
	MaxLatitude  = 85.0
)

// Bubble area bounds, in square pixels before the square root is taken.
const (
	MinBubbleArea = 10.0
	MaxBubbleArea = 50.0
)

const bubbleAlpha = 153

// BubbleArea maps a node count onto the marker area: half the count,
// clipped to [MinBubbleArea, MaxBubbleArea].
func BubbleArea(count int) float64 {
	return math.Min(MaxBubbleArea, math.Max(MinBubbleArea, float64(count)*0.5))
}

// BubbleRadius is the rendered radius of a marker of the given count.
func BubbleRadius(count int) float64 {
	return math.Sqrt(BubbleArea(count))
}

// Autumn maps t in [0,1] onto the red to yellow colour ramp.
func Autumn(t float64) drawing.Color {
	t = math.Min(1, math.Max(0, t))
	return drawing.Color{R: 255, G: uint8(math.Round(t * 255)), B: 0, A: 255}
}

// GeoMap plots one bubble per location on a plain lon/lat canvas. Bubble
// size grows with the node count and colour runs from red (few) to yellow
// (the busiest location).
func GeoMap(locs []geo.Location, o Options) (image.Image, error) {
	o = o.withDefaults(1600, 1000)

	ch := chart.Chart{
		Width:  o.Width,
		Height: o.Height,
		Background: chart.Style{
			FillColor:   ColorOcean,
			StrokeColor: ColorOcean,
			Padding:     chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 30},
		},
		Canvas: chart.Style{
			FillColor:   ColorOcean,
			StrokeColor: ColorOcean,
		},
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: MinLongitude, Max: MaxLongitude},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: MinLatitude, Max: MaxLatitude},
		},
		Series: []chart.Series{bubbles(locs)},
	}

	img, err := renderPNG("geolocation map", &ch)
	if err != nil {
		return nil, err
	}
	return Stamp(img, o), nil
}

// bubbles builds a dots-only series. With no locations it carries a single
// undrawn point so the chart still renders its background.
func bubbles(locs []geo.Location) chart.ContinuousSeries {
	if len(locs) == 0 {
		return chart.ContinuousSeries{
			XValues: []float64{0},
			YValues: []float64{0},
			Style:   chart.Style{StrokeWidth: noStroke},
		}
	}

	xs := make([]float64, len(locs))
	ys := make([]float64, len(locs))
	maxCount := 0
	for i, l := range locs {
		xs[i] = l.Longitude
		ys[i] = l.Latitude
		maxCount = max(maxCount, l.Count)
	}

	return chart.ContinuousSeries{
		Name:    "nodes",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: noStroke,
			DotWidthProvider: func(_, _ chart.Range, i int, _, _ float64) float64 {
				return BubbleRadius(locs[i].Count)
			},
			DotColorProvider: func(_, _ chart.Range, i int, _, _ float64) drawing.Color {
				return withAlpha(Autumn(float64(locs[i].Count)/float64(maxCount)), bubbleAlpha)
			},
		},
	}
}

// noStroke disables the connecting line of a series.
const noStroke = -1
