package stride

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDrawRange(t *testing.T) {
	g := New(12345)
	for i := 0; i < 10000; i++ {
		v := g.Draw(15)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 14)
	}
}

func TestDrawDeterministic(t *testing.T) {
	a := New(999)
	b := New(999)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Draw(10), b.Draw(10))
	}
}

func TestScheduleStrictlyIncreasingAndInBounds(t *testing.T) {
	pixels := Schedule(4242, 9, 3, 1000)
	require.NotEmpty(t, pixels)
	prev := 3
	for _, p := range pixels {
		require.Greater(t, p, prev)
		require.Less(t, p, 1000)
		prev = p
	}
}

func TestScheduleDeterministic(t *testing.T) {
	a := Schedule(555, 8, 10, 5000)
	b := Schedule(555, 8, 10, 5000)
	require.Equal(t, a, b)
}

func TestScheduleEmptyWhenNoRoom(t *testing.T) {
	pixels := Schedule(1, 5, 250, 251)
	require.Empty(t, pixels)
}
