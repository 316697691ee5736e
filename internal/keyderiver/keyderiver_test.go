package keyderiver

import (
	"crypto/sha256"
	"testing"

	"github.com/bury-stego/bury/internal/buryerr"
	"github.com/stretchr/testify/require"
)

func TestDeriveShortPassword(t *testing.T) {
	_, err := Derive([]byte("short"))
	require.ErrorIs(t, err, buryerr.ShortPassword)
}

func TestDeriveDeterministic(t *testing.T) {
	a, err := Derive([]byte("saddroPs"))
	require.NoError(t, err)
	b, err := Derive([]byte("saddroPs"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

// Derived fields must match a hand-computed SHA-256 digest of the
// password byte-for-byte, not just be internally self-consistent.
func TestDeriveMatchesHandComputedDigest(t *testing.T) {
	password := []byte("saddroPs")
	digest := sha256.Sum256(password)

	pdp, err := Derive(password)
	require.NoError(t, err)

	require.Equal(t, digest[0], pdp.Offset)
	require.Equal(t, 2+int(digest[3]%14), pdp.MaxStride)
	require.Equal(t, (int(digest[1])<<8|int(digest[2]))%9000, pdp.Rounds)
}

func TestDeriveMaxStrideRange(t *testing.T) {
	for _, pw := range [][]byte{
		[]byte("aaaaaaaa"),
		[]byte("password"),
		[]byte("zzzzzzzzzzzz"),
	} {
		pdp, err := Derive(pw)
		require.NoError(t, err)
		require.GreaterOrEqual(t, pdp.MaxStride, 2)
		require.LessOrEqual(t, pdp.MaxStride, 15)
	}
}

func TestDeriveDifferentPasswordsDiffer(t *testing.T) {
	a, err := Derive([]byte("saddroPs"))
	require.NoError(t, err)
	b, err := Derive([]byte("Saddrops"))
	require.NoError(t, err)
	require.NotEqual(t, a.CipherKey, b.CipherKey)
}
