//go:build !linux && !darwin

package clock

import "time"

func platformNow() time.Duration {
	return fallbackNow()
}
