package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonotonic_NeverGoesBackwards(t *testing.T) {
	c := NewMonotonic()
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		now := c.Now()
		require.GreaterOrEqual(t, now, prev)
		prev = now
	}
}

func TestMonotonic_TracksSleep(t *testing.T) {
	c := NewMonotonic()
	start := c.Now()
	time.Sleep(10 * time.Millisecond)
	require.GreaterOrEqual(t, c.Now()-start, 10*time.Millisecond)
}

func TestManual_Advance(t *testing.T) {
	m := NewManual(5 * time.Second)
	require.Equal(t, 5*time.Second, m.Now())

	m.Advance(250 * time.Millisecond)
	require.Equal(t, 5250*time.Millisecond, m.Now())

	// negative steps are ignored
	m.Advance(-time.Second)
	require.Equal(t, 5250*time.Millisecond, m.Now())
}
