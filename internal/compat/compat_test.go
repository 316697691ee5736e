package compat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFewerThanTwoPasswordsIsIncompatible(t *testing.T) {
	ok, err := AreCompatible([]byte("onlyoneone"))
	require.NoError(t, err)
	require.False(t, ok)
}

// A password is never compatible with itself.
func TestSamePasswordIsIncompatible(t *testing.T) {
	ok, err := AreCompatible([]byte("saddroPs"), []byte("saddroPs"))
	require.NoError(t, err)
	require.False(t, ok)
}

// Regression anchor over a fixed pair of passwords. The exact outcome
// is a property of the derived offsets/strides, but the value must
// stay stable across releases -- if this test's expectation ever
// needs to change, the derivation formulas changed underneath it.
func TestCompatibilityRegressionAnchor(t *testing.T) {
	ok, err := AreCompatible([]byte("saddroPs"), []byte("burydigup"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestThreeWayCompatibilityChecksAllPairs(t *testing.T) {
	_, err := AreCompatible([]byte("passwordA"), []byte("passwordB"), []byte("passwordC"))
	require.NoError(t, err)
}

func TestPropagatesShortPasswordError(t *testing.T) {
	_, err := AreCompatible([]byte("short"), []byte("longenough1"))
	require.Error(t, err)
}
