// Package header packs and parses the 9-byte bury header and the
// channel-spec bits stored at the offset pixel (p0).
package header

import (
	"encoding/binary"

	"github.com/bury-stego/bury/internal/bitcodec"
	"github.com/bury-stego/bury/internal/buryerr"
	"github.com/bury-stego/bury/internal/raster"
)

// Version is the wire-format version this codec speaks. It is bumped
// whenever a byte-layout-affecting choice changes.
const Version uint16 = 0x0002

// Size is the fixed header length in bytes.
const Size = 9

// MSG_PARAMS bit positions.
const (
	ParamCompressed byte = 1 << 0
	ParamEncrypted  byte = 1 << 1
	ParamFilename   byte = 1 << 2
	ParamErasure    byte = 1 << 3
)

// PackHeader lays out the fixed 9-byte header:
// VERSION (LE u16), pad, MSG_PARAMS, pad, PAYLOAD_SIZE (BE u32).
func PackHeader(version uint16, msgParams byte, payloadSize uint64) ([Size]byte, error) {
	var out [Size]byte
	if payloadSize > 0xFFFFFFFF {
		return out, buryerr.New("header.PackHeader", buryerr.HeaderOverflow, nil)
	}
	binary.LittleEndian.PutUint16(out[0:2], version)
	out[3] = msgParams
	binary.BigEndian.PutUint32(out[5:9], uint32(payloadSize))
	return out, nil
}

// ParseHeader inverts PackHeader. It fails with buryerr.ShortHeader if
// fewer than Size bytes are given, and buryerr.BadVersion if the
// decoded version doesn't match Version.
func ParseHeader(b []byte) (version uint16, msgParams byte, payloadSize uint32, err error) {
	if len(b) < Size {
		return 0, 0, 0, buryerr.New("header.ParseHeader", buryerr.ShortHeader, nil)
	}
	version = binary.LittleEndian.Uint16(b[0:2])
	if version != Version {
		return 0, 0, 0, buryerr.New("header.ParseHeader", buryerr.BadVersion, nil)
	}
	msgParams = b[3]
	payloadSize = binary.BigEndian.Uint32(b[5:9])
	return version, msgParams, payloadSize, nil
}

// WriteChannelSpec sets each channel's LSB at pixel p0=offset to 1 iff
// that channel is enabled, preserving the upper 7 bits.
func WriteChannelSpec(v *raster.View, offset int, ch bitcodec.Channels) error {
	r, g, b, err := v.GetPixelIndex(offset)
	if err != nil {
		return err
	}
	r = (r &^ 1) | boolBit(ch.R)
	g = (g &^ 1) | boolBit(ch.G)
	b = (b &^ 1) | boolBit(ch.B)
	return v.SetPixelIndex(offset, r, g, b)
}

// ReadChannelSpec is the inverse of WriteChannelSpec.
func ReadChannelSpec(v *raster.View, offset int) (bitcodec.Channels, error) {
	r, g, b, err := v.GetPixelIndex(offset)
	if err != nil {
		return bitcodec.Channels{}, err
	}
	return bitcodec.Channels{
		R: r&1 != 0,
		G: g&1 != 0,
		B: b&1 != 0,
	}, nil
}

func boolBit(v bool) byte {
	if v {
		return 1
	}
	return 0
}
