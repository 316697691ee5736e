// Package raster provides a mutable, true-color 24-bit RGB view over
// an image.Image, upgrading palette/indexed inputs by walking the
// bounds, converting through the target color.Model, and writing into
// a freshly allocated true-color buffer.
package raster

import (
	"image"
	"image/color"

	"github.com/bury-stego/bury/internal/buryerr"
)

// View is a mutable, true-color RGB raster. It owns its own pixel
// buffer, decoupled from whatever concrete image.Image it was built
// from.
type View struct {
	img *image.NRGBA
}

// FromImage upgrades src to a true-color RGB raster. Palette,
// grayscale, and any other image.Image implementation are converted
// losslessly with respect to the RGB channels (alpha is dropped; the
// codec never touches it). A zero-area image fails with
// buryerr.UnsupportedCarrier.
func FromImage(src image.Image) (*View, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, buryerr.New("raster.FromImage", buryerr.UnsupportedCarrier, nil)
	}

	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		cp := image.NewNRGBA(b)
		copy(cp.Pix, n.Pix)
		return &View{img: cp}, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return &View{img: dst}, nil
}

// New allocates a zero-valued (transparent black) raster of the given
// size. Used by tests and by the rescaler when building a shrunk copy.
func New(width, height int) *View {
	return &View{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the underlying image.Image, suitable for a caller to
// serialize losslessly (e.g. via image/png).
func (v *View) Image() image.Image { return v.img }

func (v *View) Width() int  { return v.img.Rect.Dx() }
func (v *View) Height() int { return v.img.Rect.Dy() }

func (v *View) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.Width() && y < v.Height()
}

// GetPixel returns the RGB triple at (x, y).
func (v *View) GetPixel(x, y int) (r, g, b byte, err error) {
	if !v.inBounds(x, y) {
		return 0, 0, 0, buryerr.New("raster.GetPixel", buryerr.BadGeometry, nil)
	}
	c := v.img.NRGBAAt(x, y)
	return c.R, c.G, c.B, nil
}

// SetPixel overwrites the RGB triple at (x, y), leaving alpha opaque.
func (v *View) SetPixel(x, y int, r, g, b byte) error {
	if !v.inBounds(x, y) {
		return buryerr.New("raster.SetPixel", buryerr.BadGeometry, nil)
	}
	v.img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
	return nil
}

// GetPixelIndex/SetPixelIndex address a pixel by its row-major linear
// index, as used throughout the stride-schedule machinery (offset and
// stride pixels are indices, not (x, y) pairs).
func (v *View) index2xy(idx int) (x, y int) {
	w := v.Width()
	return idx % w, idx / w
}

func (v *View) GetPixelIndex(idx int) (r, g, b byte, err error) {
	x, y := v.index2xy(idx)
	return v.GetPixel(x, y)
}

func (v *View) SetPixelIndex(idx int, r, g, b byte) error {
	x, y := v.index2xy(idx)
	return v.SetPixel(x, y, r, g, b)
}

// TotalPixels is width*height.
func (v *View) TotalPixels() int { return v.Width() * v.Height() }

// ResizePreservingAspect returns a new View at newW x newH, resampling
// with a simple nearest-neighbor pass -- adequate here since the
// rescaler only ever shrinks a carrier and the codec doesn't need
// photographic fidelity, only enough visual similarity that the
// output isn't obviously synthetic.
func (v *View) ResizePreservingAspect(newW, newH int) *View {
	dst := New(newW, newH)
	srcW, srcH := v.Width(), v.Height()
	for y := 0; y < newH; y++ {
		sy := y * srcH / newH
		for x := 0; x < newW; x++ {
			sx := x * srcW / newW
			r, g, b, _ := v.GetPixel(sx, sy)
			_ = dst.SetPixel(x, y, r, g, b)
		}
	}
	return dst
}
