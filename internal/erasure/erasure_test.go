package erasure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueShieldIsNoop(t *testing.T) {
	var s Shield
	require.False(t, s.Enabled())

	payload := []byte("passthrough")
	out, err := s.Wrap(payload)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	s := Shield{DataShards: 4, ParityShards: 2}
	payload := []byte("a payload that needs a bit of shard padding to divide evenly")

	coded, err := s.Wrap(payload)
	require.NoError(t, err)
	require.NotEqual(t, payload, coded)

	got, err := Unwrap(coded)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUnwrapToleratesCorruptedShard(t *testing.T) {
	s := Shield{DataShards: 4, ParityShards: 2}
	payload := []byte("this payload survives a single shard going bad thanks to parity")

	coded, err := s.Wrap(payload)
	require.NoError(t, err)

	// Corrupt one data shard's worth of bytes in the middle of the body.
	body := coded[12:]
	shardSize := len(body) / 6
	for i := 0; i < shardSize; i++ {
		body[i] ^= 0xFF
	}

	got, err := Unwrap(coded)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUnwrapRejectsShortHeader(t *testing.T) {
	_, err := Unwrap([]byte{1, 2, 3})
	require.Error(t, err)
}
