package composite

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func TestCombine_Layout(t *testing.T) {
	left := solid(200, 100, red)    // scaled to 400x200
	right := solid(100, 200, green) // kept at 100x200
	bottom := solid(100, 50, blue)  // scaled to 510x255

	img, l, err := Combine(left, right, bottom, Gaps{Horizontal: 10, Vertical: 20})
	require.NoError(t, err)

	assert.Equal(t, image.Pt(400, 200), l.TopLeft)
	assert.Equal(t, image.Pt(100, 200), l.TopRight)
	assert.Equal(t, image.Pt(510, 255), l.Bottom)
	assert.Equal(t, image.Pt(510, 475), l.Combined)
	assert.Equal(t, image.Rect(0, 0, 510, 475), img.Bounds())

	assert.Equal(t, red, img.RGBAAt(200, 100))
	assert.Equal(t, green, img.RGBAAt(460, 100))
	assert.Equal(t, blue, img.RGBAAt(255, 350))

	white := color.RGBA{255, 255, 255, 255}
	assert.Equal(t, white, img.RGBAAt(405, 100), "horizontal gap")
	assert.Equal(t, white, img.RGBAAt(255, 210), "vertical gap")
}

func TestCombine_EmptyInput(t *testing.T) {
	_, _, err := Combine(image.NewRGBA(image.Rect(0, 0, 0, 0)), solid(1, 1, red), solid(1, 1, blue), Gaps{})
	assert.Error(t, err)
}

func TestCombineFiles(t *testing.T) {
	dir := t.TempDir()
	tl := filepath.Join(dir, "network-chart.png")
	tr := filepath.Join(dir, "node-distribution-pie.png")
	bt := filepath.Join(dir, "geolocation-map.png")
	out := filepath.Join(dir, "out", "combined-analytics.png")

	require.NoError(t, WritePNG(tl, solid(40, 20, red)))
	require.NoError(t, WritePNG(tr, solid(20, 20, green)))
	require.NoError(t, WritePNG(bt, solid(30, 10, blue)))

	l, err := CombineFiles(tl, tr, bt, out, Gaps{Horizontal: 10, Vertical: 20})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(70, 63), l.Combined)

	img, err := ReadPNG(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 70, 63), img.Bounds())
}

func TestCombineFiles_MissingInput(t *testing.T) {
	dir := t.TempDir()
	tl := filepath.Join(dir, "network-chart.png")
	require.NoError(t, WritePNG(tl, solid(4, 4, red)))
	missing := filepath.Join(dir, "node-distribution-pie.png")

	_, err := CombineFiles(tl, missing, tl, filepath.Join(dir, "out.png"), Gaps{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), missing)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

func TestStack(t *testing.T) {
	img := Stack([]image.Image{solid(100, 30, red), solid(50, 20, green)}, 5)

	assert.Equal(t, image.Rect(0, 0, 100, 55), img.Bounds())
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(50, 40))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(10, 40), "narrow panel is centred")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(50, 32), "gap")
}

func TestScale(t *testing.T) {
	img := Scale(solid(10, 10, blue), 3, 7)
	assert.Equal(t, image.Rect(0, 0, 3, 7), img.Bounds())
	assert.Equal(t, blue, img.RGBAAt(1, 3))
}
