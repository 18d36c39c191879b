package render

import (
	"fmt"
	"image"
	"image/color"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/torstats/torstats/pkg/types"
)

const pieTitle = "Tor Network Node Distribution"

// DistributionPie draws the share of each role in counts. Wedges carry the
// percentage; a legend lists the absolute counts. Empty roles are left out
// of the wedges but kept in the legend.
func DistributionPie(counts types.RoleCounts, o Options) (image.Image, error) {
	o = o.withDefaults(1000, 800)

	total := counts.Total()
	if total == 0 {
		return Stamp(placeholder(o.Width, o.Height, pieTitle, "no nodes in the active inventory"), o), nil
	}

	var values []chart.Value
	labels := make([]string, 0, len(types.Roles))
	colors := make([]color.Color, 0, len(types.Roles))
	for _, r := range types.Roles {
		n := counts.Get(r)
		name := roleTitle(r)
		labels = append(labels, fmt.Sprintf("%s: %s", name, formatCount(n)))
		colors = append(colors, RoleColor(r))
		if n == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", name, Percent(n, total)),
			Value: float64(n),
			Style: chart.Style{
				FillColor:   RoleColor(r),
				StrokeColor: colorWhite,
				StrokeWidth: 2,
				FontColor:   colorWhite,
				FontSize:    13,
			},
		})
	}

	pie := chart.PieChart{
		Title:  pieTitle,
		Width:  o.Width,
		Height: o.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 30},
		},
		Values: values,
	}

	img, err := renderPNG("distribution pie", &pie)
	if err != nil {
		return nil, err
	}
	dst := Stamp(img, o)
	drawLegend(dst, dst.Bounds().Max.X-boxPadding, boxPadding, labels, colors)
	return dst, nil
}

// Percent is n as a percentage of total, 0 when total is 0.
func Percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func roleTitle(r types.Role) string {
	switch r {
	case types.RoleRelay:
		return "Relay"
	case types.RoleExit:
		return "Exit"
	case types.RoleGuard:
		return "Guard"
	}
	return string(r)
}
