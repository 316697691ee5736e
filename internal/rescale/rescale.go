// Package rescale shrinks a carrier to the minimum size that still
// fits a payload under the derived stride schedule.
// It never enlarges: a too-large carrier with a short payload exposes
// the fact that data is buried, since the trailing random-bit fill
// becomes conspicuous.
package rescale

import "math"

// Dimensions returns the candidate new (width, height) for a carrier
// of size (w, h) that must fit requiredPixels pixels, preserving
// aspect ratio. The caller must still check Accept before using them.
func Dimensions(w, h, requiredPixels int) (newW, newH int) {
	if w <= 0 || h <= 0 {
		return w, h
	}

	longSide, shortSide := float64(w), float64(h)
	if h > w {
		longSide, shortSide = float64(h), float64(w)
	}
	ratio := longSide / shortSide

	n := int(math.Ceil(math.Sqrt(float64(requiredPixels) / ratio)))
	if n < 1 {
		n = 1
	}

	if w >= h {
		newW = int(math.Ceil(float64(n) * ratio))
		newH = n
	} else {
		newW = n
		newH = int(math.Ceil(float64(n) * ratio))
	}
	return newW, newH
}

// Accept reports whether shrinking (w, h) to (newW, newH) is both
// sufficient (fits requiredPixels) and strictly smaller than the
// original.
func Accept(w, h, newW, newH, requiredPixels int) bool {
	return newW*newH >= requiredPixels && newW*newH < w*h
}
