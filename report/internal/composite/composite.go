// Package composite assembles the combined analytics image from the network
// chart, the distribution pie and the geolocation map, and stacks chart
// panels vertically.
package composite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// ErrMissingInput is returned by CombineFiles when an input image does not
// exist. The wrapping error names the file.
var ErrMissingInput = errors.New("composite: input image not found")

// Background fills every pixel not covered by an input image.
var Background = color.White

// Gaps are the pixel distances between the composed images.
type Gaps struct {
	Horizontal int // between the two top images
	Vertical   int // between the top row and the bottom image
}

// Layout records the sizes used for one composition.
type Layout struct {
	TopLeft  image.Point
	TopRight image.Point
	Bottom   image.Point
	Combined image.Point
}

// Combine places topLeft and topRight side by side, both scaled to the taller
// of the two heights, and bottom underneath scaled to the width of the top
// row. Aspect ratios are preserved.
func Combine(topLeft, topRight, bottom image.Image, gaps Gaps) (*image.RGBA, Layout, error) {
	for _, img := range []image.Image{topLeft, topRight, bottom} {
		if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
			return nil, Layout{}, fmt.Errorf("composite: empty input image")
		}
	}
	if gaps.Horizontal < 0 || gaps.Vertical < 0 {
		return nil, Layout{}, fmt.Errorf("composite: negative gap")
	}

	lb, rb, bb := topLeft.Bounds(), topRight.Bounds(), bottom.Bounds()
	rowH := max(lb.Dy(), rb.Dy())
	leftW := lb.Dx() * rowH / lb.Dy()
	rightW := rb.Dx() * rowH / rb.Dy()
	rowW := leftW + gaps.Horizontal + rightW
	bottomH := bb.Dy() * rowW / bb.Dx()

	l := Layout{
		TopLeft:  image.Pt(leftW, rowH),
		TopRight: image.Pt(rightW, rowH),
		Bottom:   image.Pt(rowW, bottomH),
		Combined: image.Pt(rowW, rowH+gaps.Vertical+bottomH),
	}

	dst := canvas(l.Combined.X, l.Combined.Y)
	scaleInto(dst, image.Rect(0, 0, leftW, rowH), topLeft)
	scaleInto(dst, image.Rect(leftW+gaps.Horizontal, 0, rowW, rowH), topRight)
	top := rowH + gaps.Vertical
	scaleInto(dst, image.Rect(0, top, rowW, top+bottomH), bottom)
	return dst, l, nil
}

// CombineFiles reads the three PNG inputs, combines them and writes the
// result to out.
func CombineFiles(topLeft, topRight, bottom, out string, gaps Gaps) (Layout, error) {
	var imgs [3]image.Image
	for i, path := range []string{topLeft, topRight, bottom} {
		img, err := ReadPNG(path)
		if err != nil {
			return Layout{}, err
		}
		imgs[i] = img
	}

	dst, l, err := Combine(imgs[0], imgs[1], imgs[2], gaps)
	if err != nil {
		return Layout{}, err
	}
	return l, WritePNG(out, dst)
}

// Stack draws images top to bottom, each centred horizontally on a canvas as
// wide as the widest image, separated by gap pixels.
func Stack(images []image.Image, gap int) *image.RGBA {
	w, h := 0, 0
	for i, img := range images {
		b := img.Bounds()
		w = max(w, b.Dx())
		h += b.Dy()
		if i > 0 {
			h += gap
		}
	}

	dst := canvas(w, h)
	y := 0
	for _, img := range images {
		b := img.Bounds()
		x := (w - b.Dx()) / 2
		draw.Draw(dst, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy() + gap
	}
	return dst
}

// Scale resamples src to w×h.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaleInto(dst, dst.Bounds(), src)
	return dst
}

// ReadPNG decodes the PNG file at path. A missing file yields an error
// wrapping ErrMissingInput.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("composite: open %q: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("composite: decode %q: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("composite: create dir for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("composite: create %q: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("composite: encode %q: %w", path, err)
	}
	return f.Close()
}

func canvas(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	return dst
}

func scaleInto(dst draw.Image, r image.Rectangle, src image.Image) {
	draw.CatmullRom.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
}
