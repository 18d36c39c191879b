package render

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/draw"

	"github.com/torstats/torstats/pkg/types"
	"github.com/torstats/torstats/report/internal/archive"
	"github.com/torstats/torstats/report/internal/geo"
)

var fixedNow = time.Date(2024, 3, 7, 18, 30, 0, 0, time.UTC)

func opts(w, h int) Options {
	return Options{Width: w, Height: h, Now: fixedNow}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// near reports whether two colours differ by at most tol per channel.
func near(a, b color.Color, tol int) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	diff := func(x, y uint32) bool { return math.Abs(float64(x>>8)-float64(y>>8)) <= float64(tol) }
	return diff(ar, br) && diff(ag, bg) && diff(ab, bb) && diff(aa, ba)
}

func TestBubbleArea(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{1, MinBubbleArea},
		{20, MinBubbleArea},
		{40, 20},
		{100, MaxBubbleArea},
		{5000, MaxBubbleArea},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BubbleArea(tc.count), "count %d", tc.count)
	}
	assert.InDelta(t, math.Sqrt(20), BubbleRadius(40), 1e-9)
}

func TestAutumn(t *testing.T) {
	assert.Equal(t, drawing.Color{R: 255, G: 0, B: 0, A: 255}, Autumn(0))
	assert.Equal(t, drawing.Color{R: 255, G: 255, B: 0, A: 255}, Autumn(1))
	assert.Equal(t, uint8(128), Autumn(0.5).G)
	assert.Equal(t, Autumn(1), Autumn(7), "clamped above")
	assert.Equal(t, Autumn(0), Autumn(-1), "clamped below")
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 25.0, Percent(1, 4), 1e-9)
	assert.Zero(t, Percent(3, 0))
}

func TestChurnStatsLines(t *testing.T) {
	lines := ChurnStatsLines(types.ChurnSummary{
		UniqueNodes:       12345,
		AvgLifetimeDays:   3.04,
		AvgNewPerDay:      10.4,
		AvgDepartedPerDay: 9.6,
		AvgChurnRate:      2.346,
	})
	assert.Equal(t, []string{
		"Total unique nodes: 12,345",
		"Avg lifetime: 3.0 days",
		"Avg new/day: 10  |  Avg departed/day: 10",
		"Avg churn rate: 2.35%",
	}, lines)
}

func TestStamp(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 60))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	out := Stamp(src, opts(0, 0))
	assert.Equal(t, "generated: 2024-03-07", StampText(opts(0, 0)))

	marked := func(r image.Rectangle) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if !near(out.At(x, y), color.White, 0) {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, marked(image.Rect(150, 30, 300, 60)), "stamp missing bottom-right")
	assert.False(t, marked(image.Rect(0, 0, 100, 30)), "stamp drawn top-left")
	assert.True(t, near(src.At(290, 50), color.White, 0), "source modified")
}

func TestNetworkChart(t *testing.T) {
	rows := []archive.DatedCounts{
		{Date: day(1), Counts: types.RoleCounts{Relay: 7000, Exit: 1200, Guard: 3500}},
		{Date: day(2), Counts: types.RoleCounts{Relay: 7100, Exit: 1180, Guard: 3520}},
		{Date: day(5), Counts: types.RoleCounts{Relay: 6900, Exit: 1250, Guard: 3400}},
	}
	img, err := NetworkChart(rows, opts(800, 480))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 480), img.Bounds())
}

func TestNetworkChart_SingleDay(t *testing.T) {
	rows := []archive.DatedCounts{{Date: day(1), Counts: types.RoleCounts{Relay: 3}}}
	img, err := NetworkChart(rows, opts(400, 300))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestNetworkChart_NoData(t *testing.T) {
	_, err := NetworkChart(nil, opts(400, 300))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNetworkPlaceholder(t *testing.T) {
	img := NetworkPlaceholder(opts(400, 300))
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
}

func TestDistributionPie(t *testing.T) {
	img, err := DistributionPie(types.RoleCounts{Relay: 7000, Exit: 1200, Guard: 3500}, opts(600, 480))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 480), img.Bounds())
}

func TestDistributionPie_EmptyRoles(t *testing.T) {
	img, err := DistributionPie(types.RoleCounts{Relay: 5}, opts(600, 480))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())

	img, err = DistributionPie(types.RoleCounts{}, opts(600, 480))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 480), img.Bounds())
}

func TestGeoMap(t *testing.T) {
	locs := geo.GroupByLocation([]geo.Record{
		{Latitude: 52.5, Longitude: 13.4},
		{Latitude: 52.5, Longitude: 13.4},
		{Latitude: 40.7, Longitude: -74.0},
		{Latitude: -33.9, Longitude: 151.2},
	})
	img, err := GeoMap(locs, opts(800, 500))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 500), img.Bounds())
	assert.True(t, near(img.At(3, 3), ColorOcean, 2), "background: got %v", img.At(3, 3))
}

func TestGeoMap_Empty(t *testing.T) {
	img, err := GeoMap(nil, opts(400, 250))
	require.NoError(t, err)
	assert.True(t, near(img.At(200, 120), ColorOcean, 2), "empty map should be plain background")
}

func TestChurnChart(t *testing.T) {
	points := []types.DailyPoint{
		{Date: day(1), New: 4},
		{Date: day(2), New: 1, Departed: 1, ChurnRate: 25},
		{Date: day(3), New: 2, Departed: 2, ChurnRate: 50},
	}
	s := types.ChurnSummary{Snapshots: 3, UniqueNodes: 7, AvgNewPerDay: 1.5, AvgDepartedPerDay: 1.5, AvgChurnRate: 37.5}

	img, err := ChurnChart(points, s, opts(900, 700))
	require.NoError(t, err)
	assert.Equal(t, 900, img.Bounds().Dx())
	assert.InDelta(t, 700, img.Bounds().Dy(), 2)
}

func TestChurnChart_TooFewSnapshots(t *testing.T) {
	for _, points := range [][]types.DailyPoint{nil, {{Date: day(1), New: 4}}} {
		img, err := ChurnChart(points, types.ChurnSummary{}, opts(600, 500))
		require.NoError(t, err)
		assert.Equal(t, 600, img.Bounds().Dx())
	}
}

func TestChurnChart_AllZero(t *testing.T) {
	points := []types.DailyPoint{{Date: day(1), New: 2}, {Date: day(2)}, {Date: day(3)}}
	_, err := ChurnChart(points, types.ChurnSummary{}, opts(600, 500))
	assert.NoError(t, err)
}

func TestDateAxis_MonthTicks(t *testing.T) {
	first := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	ax := dateAxis(first, last)
	var labels []string
	for _, tk := range ax.Ticks {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"2024-02-01", "2024-03-01", "2024-04-01"}, labels)
}

func TestDateAxis_ShortRange(t *testing.T) {
	ax := dateAxis(day(1), day(17))
	require.NotEmpty(t, ax.Ticks)
	assert.Equal(t, "2024-01-01", ax.Ticks[0].Label)
	assert.LessOrEqual(t, len(ax.Ticks), 9)

	single := dateAxis(day(5), day(5))
	assert.Less(t, single.Range.GetMin(), single.Range.GetMax())
}
