// Package erasure adds an optional Reed-Solomon parity shield around
// an assembled bury payload, so that decode can tolerate a handful of
// flipped LSBs (e.g. a carrier that passed through a lossless-in-name
// PNG optimizer that nonetheless perturbed a few bit planes) without
// failing the MD5 checksum outright.
package erasure

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Shield describes the shard geometry to apply. A zero-value Shield
// (DataShards == 0) is a no-op passthrough.
type Shield struct {
	DataShards   int
	ParityShards int
}

// Enabled reports whether this shield actually adds parity.
func (s Shield) Enabled() bool { return s.DataShards > 0 && s.ParityShards > 0 }

// Wrap erasure-codes payload into DataShards+ParityShards shards and
// concatenates them, prefixed with a small self-describing header
// (original size, shard counts) so Unwrap doesn't need out-of-band
// shard metadata.
func (s Shield) Wrap(payload []byte) ([]byte, error) {
	if !s.Enabled() {
		return payload, nil
	}

	enc, err := reedsolomon.New(s.DataShards, s.ParityShards)
	if err != nil {
		return nil, fmt.Errorf("erasure: creating encoder: %w", err)
	}

	shards, err := enc.Split(payload)
	if err != nil {
		return nil, fmt.Errorf("erasure: splitting payload: %w", err)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("erasure: encoding parity: %w", err)
	}

	var out bytes.Buffer
	var hdr [12]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(s.DataShards))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(s.ParityShards))
	out.Write(hdr[:])
	for _, shard := range shards {
		out.Write(shard)
	}
	return out.Bytes(), nil
}

// Unwrap reverses Wrap, reconstructing missing/corrupted shards when
// necessary before rejoining the original payload. Unlike Wrap, it
// takes no Shield: the shard geometry travels inside the coded bytes
// themselves (see Wrap's 12-byte prefix), so a decoder needs no prior
// knowledge of the shard counts the encoder chose.
func Unwrap(coded []byte) ([]byte, error) {
	if len(coded) < 12 {
		return nil, fmt.Errorf("erasure: coded payload too short for header")
	}

	originalSize := int(binary.BigEndian.Uint32(coded[0:4]))
	dataShards := int(binary.BigEndian.Uint32(coded[4:8]))
	parityShards := int(binary.BigEndian.Uint32(coded[8:12]))
	body := coded[12:]

	total := dataShards + parityShards
	if total == 0 || len(body)%total != 0 {
		return nil, fmt.Errorf("erasure: malformed shard body")
	}
	shardSize := len(body) / total

	shards := make([][]byte, total)
	for i := 0; i < total; i++ {
		shards[i] = body[i*shardSize : (i+1)*shardSize]
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("erasure: creating decoder: %w", err)
	}

	ok, err := enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("erasure: verifying shards: %w", err)
	}
	// Reconstruct only fills nil shards, so try dropping each shard in
	// turn and keep the first rebuild whose parity verifies.
	for i := 0; !ok && i < total; i++ {
		trial := append([][]byte(nil), shards...)
		trial[i] = nil
		if enc.Reconstruct(trial) == nil {
			if ok, _ = enc.Verify(trial); ok {
				shards = trial
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("erasure: reconstructing shards: no single-shard repair verifies")
	}

	var buf bytes.Buffer
	if err := enc.Join(&buf, shards, originalSize); err != nil {
		return nil, fmt.Errorf("erasure: joining shards: %w", err)
	}
	return buf.Bytes(), nil
}
