// Package config loads profiler settings from a YAML file and keeps a shared
// profiler in sync with it.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// File is the on-disk settings document. Unset fields keep their current
// value when applied.
type File struct {
	Profiler ProfilerSection `yaml:"profiler"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
}

// ProfilerSection mirrors profiler.Settings with optional fields.
type ProfilerSection struct {
	Active            *bool          `yaml:"active"`
	StoredDataAmount  *int           `yaml:"stored_data_amount"`
	StoredCacheAmount *int           `yaml:"stored_cache_amount"`
	UpdateInterval    *time.Duration `yaml:"update_interval"`
	SmoothingAmount   *int           `yaml:"smoothing_amount"`
}

// Load reads and parses the settings file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	defer f.Close()

	conf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return conf, nil
}

// Parse decodes a settings document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	conf := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if _, _, err := conf.Level(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Apply copies every set field onto s and validates the result. s is left
// untouched when the result is invalid.
func (f *File) Apply(s *profiler.Settings) error {
	next := *s
	p := f.Profiler
	if p.Active != nil {
		next.Active = *p.Active
	}
	if p.StoredDataAmount != nil {
		next.StoredDataAmount = *p.StoredDataAmount
	}
	if p.StoredCacheAmount != nil {
		next.StoredCacheAmount = *p.StoredCacheAmount
	}
	if p.UpdateInterval != nil {
		next.UpdateInterval = *p.UpdateInterval
	}
	if p.SmoothingAmount != nil {
		next.SmoothingAmount = *p.SmoothingAmount
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid profiler settings: %w", err)
	}
	*s = next
	return nil
}

// Level returns the configured log level. ok is false when none is set.
func (f *File) Level() (level logrus.Level, ok bool, err error) {
	if f.LogLevel == "" {
		return 0, false, nil
	}
	level, err = logrus.ParseLevel(f.LogLevel)
	if err != nil {
		return 0, false, fmt.Errorf("invalid log_level: %w", err)
	}
	return level, true, nil
}
