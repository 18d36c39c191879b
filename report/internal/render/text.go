package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	stampMargin = 6
	boxPadding  = 8
)

var face = basicfont.Face7x13

var numbers = message.NewPrinter(language.English)

// StampText is the label drawn bottom-right on every chart.
func StampText(o Options) string {
	return "generated: " + o.Now.Format("2006-01-02")
}

// Stamp copies img and writes the generated date in its bottom-right corner.
func Stamp(img image.Image, o Options) *image.RGBA {
	dst := toRGBA(img)
	text := StampText(o)
	b := dst.Bounds()
	w := textWidth(text)
	drawText(dst, b.Max.X-w-stampMargin, b.Max.Y-stampMargin, text, colorStamp)
	return dst
}

// textPanel renders lines inside a filled box on a white panel of width w.
func textPanel(w int, lines []string, fill color.Color) *image.RGBA {
	lineH := face.Metrics().Height.Ceil()
	boxW := 0
	for _, l := range lines {
		boxW = max(boxW, textWidth(l))
	}
	boxW += 2 * boxPadding
	boxH := len(lines)*lineH + 2*boxPadding
	h := boxH + 2*boxPadding + lineH // room for the stamp underneath

	dst := image.NewRGBA(image.Rect(0, 0, max(w, boxW+2*boxPadding), h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	x0 := w * 12 / 100
	if x0+boxW > dst.Bounds().Dx() {
		x0 = boxPadding
	}
	box := image.Rect(x0, boxPadding, x0+boxW, boxPadding+boxH)
	draw.Draw(dst, box, image.NewUniform(fill), image.Point{}, draw.Over)

	ascent := face.Metrics().Ascent.Ceil()
	for i, l := range lines {
		drawText(dst, box.Min.X+boxPadding, box.Min.Y+boxPadding+ascent+i*lineH, l, colorBlack)
	}
	return dst
}

// drawLegend draws a box of colour swatches and labels with its top-right
// corner at (right, top).
func drawLegend(dst draw.Image, right, top int, labels []string, colors []color.Color) {
	lineH := face.Metrics().Height.Ceil() + 4
	sw := face.Metrics().Ascent.Ceil()
	w := 0
	for _, l := range labels {
		w = max(w, textWidth(l))
	}
	w += sw + 3*boxPadding/2 + boxPadding
	h := len(labels)*lineH + boxPadding

	box := image.Rect(right-w, top, right, top+h)
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 220}), image.Point{}, draw.Over)

	for i, l := range labels {
		y := top + boxPadding/2 + i*lineH
		swatch := image.Rect(box.Min.X+boxPadding, y+2, box.Min.X+boxPadding+sw, y+2+sw)
		draw.Draw(dst, swatch, image.NewUniform(colors[i]), image.Point{}, draw.Src)
		drawText(dst, swatch.Max.X+boxPadding/2, y+2+sw, l, colorBlack)
	}
}

// placeholder renders a blank chart area carrying a title and a message.
func placeholder(w, h int, title, msg string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawText(dst, (w-textWidth(title))/2, 2*boxPadding+face.Metrics().Ascent.Ceil(), title, colorBlack)
	drawText(dst, (w-textWidth(msg))/2, h/2, msg, colorStamp)
	return dst
}

func drawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// renderPNG renders a go-chart renderable and decodes the result.
func renderPNG(name string, r interface {
	Render(chart.RendererProvider, io.Writer) error
}) (image.Image, error) {
	var buf bytes.Buffer
	if err := r.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %s: %w", name, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("render: %s: decode: %w", name, err)
	}
	return img, nil
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return numbers.Sprintf("%d", n)
}
