// Package clock provides the monotonic time source used for region timing.
package clock

import (
	"sync"
	"time"
)

// Clock returns a monotonic offset from an arbitrary, fixed origin.
// Offsets from the same Clock are comparable; they never go backwards.
type Clock interface {
	Now() time.Duration
}

// Monotonic reads the platform monotonic clock. It is immune to wall-clock
// adjustments. Platform-specific implementation in clock_unix.go and
// clock_other.go.
type Monotonic struct{}

// NewMonotonic returns the platform monotonic clock.
func NewMonotonic() Monotonic {
	return Monotonic{}
}

// Now returns the current monotonic offset.
func (Monotonic) Now() time.Duration {
	return platformNow()
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManual creates a manual clock starting at the given offset.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current offset.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}
