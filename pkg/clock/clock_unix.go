//go:build linux || darwin

package clock

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// lastReading is the most recent successful CLOCK_MONOTONIC value.
var lastReading atomic.Int64

func platformNow() time.Duration {
	return readMonotonic(func(ts *unix.Timespec) error {
		return unix.ClockGettime(unix.CLOCK_MONOTONIC, ts)
	})
}

// readMonotonic never mixes time sources: a failed read repeats the last
// good reading so offsets stay on the CLOCK_MONOTONIC scale.
func readMonotonic(gettime func(*unix.Timespec) error) time.Duration {
	var ts unix.Timespec
	if err := gettime(&ts); err != nil {
		return time.Duration(lastReading.Load())
	}
	now := ts.Nano()
	for {
		last := lastReading.Load()
		if now <= last {
			return time.Duration(last)
		}
		if lastReading.CompareAndSwap(last, now) {
			return time.Duration(now)
		}
	}
}
