// Package keyderiver turns a password into the password-derived
// parameters (PDP) that drive both the crypto and the spatial layout
// of a bury operation: pixel offset, stride range, stride seed, and
// cipher key. It is a pure, deterministic function of the password
// bytes alone -- no raster dimensions ever enter it.
package keyderiver

import (
	"crypto/sha256"

	"github.com/bury-stego/bury/internal/buryerr"
)

// MinPasswordLen is the shortest password derive will accept.
const MinPasswordLen = 8

// roundModulus bounds the extra SHA-256 iterations applied to the
// digest before it becomes the cipher key.
const roundModulus = 9000

// PDP holds the four password-derived parameters, plus the internal
// round count used to reach the cipher key (kept for inspection/tests,
// never persisted to the wire format).
type PDP struct {
	Offset     uint8
	MaxStride  int
	StrideSeed uint32
	CipherKey  [32]byte
	Rounds     int
}

// Derive computes the PDP for password. password must be at least
// MinPasswordLen bytes or Derive fails with buryerr.ShortPassword.
func Derive(password []byte) (PDP, error) {
	if len(password) < MinPasswordLen {
		return PDP{}, buryerr.New("keyderiver.Derive", buryerr.ShortPassword, nil)
	}

	h := sha256.Sum256(password)

	pdp := PDP{
		Offset:    h[0],
		Rounds:    (int(h[1])<<8 | int(h[2])) % roundModulus,
		MaxStride: 2 + int(h[3]%14),
	}

	var t [4]uint32
	for i := 0; i < 7; i++ {
		t[0] ^= uint32(h[4+i])
		t[1] ^= uint32(h[11+i])
		t[2] ^= uint32(h[18+i])
		t[3] ^= uint32(h[25+i])
	}
	pdp.StrideSeed = ((t[0] * 16777216) % 128) + (t[1] * 65536) + (t[2] * 256) + t[3]

	digest := h
	for i := 0; i < pdp.Rounds; i++ {
		digest = sha256.Sum256(digest[:])
	}
	pdp.CipherKey = digest

	return pdp, nil
}
