package profiler

import (
	"fmt"
	"time"
)

// Settings configures the profiler. It may be changed at any time through
// Shared.ChangeSettings; changes take effect at the next resolve.
type Settings struct {
	// Active enables timing. Switching it off flushes pending samples once.
	Active bool `json:"active" yaml:"active"`
	// StoredDataAmount caps the averaged history kept per region.
	StoredDataAmount int `json:"stored_data_amount" yaml:"stored_data_amount"`
	// StoredCacheAmount caps the raw samples kept per region between resolves.
	StoredCacheAmount int `json:"stored_cache_amount" yaml:"stored_cache_amount"`
	// UpdateInterval is the minimum time between resolves.
	UpdateInterval time.Duration `json:"update_interval" yaml:"update_interval"`
	// SmoothingAmount is how many history points readers average over.
	SmoothingAmount int `json:"smoothing_amount" yaml:"smoothing_amount"`
}

// DefaultSettings returns the default profiler settings.
func DefaultSettings() Settings {
	return Settings{
		Active:            true,
		StoredDataAmount:  3,
		StoredCacheAmount: 2,
		UpdateInterval:    500 * time.Millisecond,
		SmoothingAmount:   1,
	}
}

// Validate reports the first out-of-range field.
func (s Settings) Validate() error {
	if s.StoredDataAmount < 1 {
		return fmt.Errorf("stored_data_amount must be at least 1, got %d", s.StoredDataAmount)
	}
	if s.StoredCacheAmount < 1 {
		return fmt.Errorf("stored_cache_amount must be at least 1, got %d", s.StoredCacheAmount)
	}
	if s.UpdateInterval < 0 {
		return fmt.Errorf("update_interval must not be negative, got %v", s.UpdateInterval)
	}
	if s.SmoothingAmount < 0 {
		return fmt.Errorf("smoothing_amount must not be negative, got %d", s.SmoothingAmount)
	}
	return nil
}
