// Package bitcodec modulates a byte buffer into, and demodulates it
// back out of, the enabled-channel LSBs of a chosen pixel sequence,
// in a fixed R, then B, then G channel order.
package bitcodec

import (
	"crypto/rand"

	"github.com/bury-stego/bury/internal/buryerr"
	"github.com/bury-stego/bury/internal/raster"
)

// Channels selects which of the three RGB channels of a pixel carry
// payload bits. At least one must be enabled.
type Channels struct {
	R, G, B bool
}

// Count returns the number of enabled channels (the bits-per-pixel).
func (c Channels) Count() int {
	n := 0
	if c.R {
		n++
	}
	if c.G {
		n++
	}
	if c.B {
		n++
	}
	return n
}

// order returns which channel each successive bit within one pixel
// goes to, in the wire-mandated R, then B, then G order, filtered to
// only the enabled ones.
func (c Channels) order() []byte {
	var o []byte
	if c.R {
		o = append(o, 'R')
	}
	if c.B {
		o = append(o, 'B')
	}
	if c.G {
		o = append(o, 'G')
	}
	return o
}

func setLSB(v byte, bit byte) byte {
	return (v &^ 1) | (bit & 1)
}

func getLSB(v byte) byte {
	return v & 1
}

// Modulate writes bits (LSB-first per byte) into the pixel sequence
// pixels (p1, p2, ... -- p0/offset is never touched here). Any
// enabled-channel LSBs left over once the byte stream is exhausted
// are filled with random bits, unless fillColor is non-nil, in which
// case that RGB triple is written verbatim to the remaining pixels
// (a debug mode for visualizing coverage).
func Modulate(v *raster.View, pixels []int, ch Channels, data []byte, fillColor *[3]byte) error {
	order := ch.order()
	if len(order) == 0 {
		return buryerr.New("bitcodec.Modulate", buryerr.NoChannels, nil)
	}

	totalBits := len(data) * 8
	bitIdx := 0

	for _, p := range pixels {
		r, g, b, err := v.GetPixelIndex(p)
		if err != nil {
			return err
		}
		ch3 := map[byte]*byte{'R': &r, 'G': &g, 'B': &b}

		for _, c := range order {
			var bit byte
			written := false
			if bitIdx < totalBits {
				byteVal := data[bitIdx/8]
				bitInByte := uint(bitIdx % 8)
				bit = (byteVal >> bitInByte) & 1
				bitIdx++
				written = true
			}
			if !written {
				if fillColor != nil {
					switch c {
					case 'R':
						*ch3['R'] = fillColor[0]
					case 'G':
						*ch3['G'] = fillColor[1]
					case 'B':
						*ch3['B'] = fillColor[2]
					}
					continue
				}
				var buf [1]byte
				if _, err := rand.Read(buf[:]); err != nil {
					return buryerr.New("bitcodec.Modulate", buryerr.BadGeometry, err)
				}
				bit = buf[0] & 1
			}
			*ch3[c] = setLSB(*ch3[c], bit)
		}

		if err := v.SetPixelIndex(p, r, g, b); err != nil {
			return err
		}
	}
	return nil
}

// Demodulate reads ceil(count(pixels)*count(channels)/8) bytes back
// out of the given pixel sequence, in the same R, then B, then G
// channel order Modulate used.
func Demodulate(v *raster.View, pixels []int, ch Channels) ([]byte, error) {
	order := ch.order()
	if len(order) == 0 {
		return nil, buryerr.New("bitcodec.Demodulate", buryerr.NoChannels, nil)
	}

	totalBits := len(pixels) * len(order)
	out := make([]byte, (totalBits+7)/8)

	bitIdx := 0
	for _, p := range pixels {
		r, g, b, err := v.GetPixelIndex(p)
		if err != nil {
			return nil, err
		}
		ch3 := map[byte]byte{'R': r, 'G': g, 'B': b}

		for _, c := range order {
			bit := getLSB(ch3[c])
			byteIdx := bitIdx / 8
			bitInByte := uint(bitIdx % 8)
			out[byteIdx] |= bit << bitInByte
			bitIdx++
		}
	}
	return out, nil
}
