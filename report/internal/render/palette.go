package render

import (
	"image/color"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/torstats/torstats/pkg/types"
)

// Role colours shared by every chart.
var (
	ColorRelay = drawing.Color{R: 189, G: 97, B: 87, A: 255}
	ColorExit  = drawing.Color{R: 86, G: 189, B: 164, A: 255}
	ColorGuard = drawing.Color{R: 87, G: 148, B: 189, A: 255}
	ColorAll   = drawing.Color{R: 116, G: 87, B: 189, A: 255}

	// ColorOcean is the map background.
	ColorOcean = drawing.Color{R: 230, G: 242, B: 255, A: 255}

	colorGrid  = drawing.Color{R: 0, G: 0, B: 0, A: 40}
	colorBlack = drawing.Color{R: 0, G: 0, B: 0, A: 255}
	colorWhite = drawing.Color{R: 255, G: 255, B: 255, A: 255}

	colorStamp    = color.NRGBA{R: 128, G: 128, B: 128, A: 179}
	colorStatsBox = color.NRGBA{R: 245, G: 222, B: 179, A: 128}
)

// RoleColor returns the chart colour of r.
func RoleColor(r types.Role) drawing.Color {
	switch r {
	case types.RoleRelay:
		return ColorRelay
	case types.RoleExit:
		return ColorExit
	case types.RoleGuard:
		return ColorGuard
	}
	return ColorAll
}

// Options are shared by every chart function.
type Options struct {
	Width  int
	Height int

	// Now dates the "generated" stamp.
	Now time.Time
}

func (o Options) withDefaults(w, h int) Options {
	if o.Width <= 0 {
		o.Width = w
	}
	if o.Height <= 0 {
		o.Height = h
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// withAlpha returns c with its alpha channel replaced.
func withAlpha(c drawing.Color, a uint8) drawing.Color {
	c.A = a
	return c
}
