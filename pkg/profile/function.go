// Package profile holds the per-region timer and rolling aggregates.
package profile

import (
	"time"

	"github.com/danpilch/ticktree/pkg/clock"
)

// Point is one averaged history entry.
type Point struct {
	// Seq is the cumulative tick count at the resolve that produced the point.
	Seq   uint64        `json:"seq"`
	Value time.Duration `json:"value"`
}

// FunctionProfile times one named region. Raw samples land in a bounded
// cache; each resolve collapses the cache into one history point.
// FunctionProfile is not safe for concurrent use.
type FunctionProfile struct {
	clk      clock.Clock
	pending  time.Duration
	cacheCap int
	cache    []time.Duration
	history  []Point
}

// New creates a profile whose cache holds at most cacheCap samples until
// the next resolve.
func New(clk clock.Clock, cacheCap int) *FunctionProfile {
	if cacheCap < 0 {
		cacheCap = 0
	}
	return &FunctionProfile{
		clk:      clk,
		pending:  clk.Now(),
		cacheCap: cacheCap,
	}
}

func (p *FunctionProfile) full() bool {
	return len(p.cache) >= p.cacheCap
}

// Start captures the pending start time. It is a no-op while the cache is
// full: excess samples within one resolve window are dropped.
func (p *FunctionProfile) Start() {
	if p.full() {
		return
	}
	p.pending = p.clk.Now()
}

// End records the time elapsed since the pending start.
func (p *FunctionProfile) End() {
	if p.full() {
		return
	}
	p.cache = append(p.cache, p.clk.Now()-p.pending)
}

// Resolve collapses the cache into one history point and clears it.
// When dropFirst is set the oldest cached sample is discarded first.
// It reports whether a point was appended; an empty cache appends nothing.
func (p *FunctionProfile) Resolve(cacheCap, historyCap int, dropFirst bool, seq uint64) bool {
	if cacheCap < 0 {
		cacheCap = 0
	}
	p.cacheCap = cacheCap

	if historyCap < 0 {
		historyCap = 0
	}
	// A lowered cap applies even when nothing new is appended.
	p.trimHistory(historyCap)

	if dropFirst && len(p.cache) > 0 {
		p.cache = p.cache[1:]
	}
	if len(p.cache) == 0 {
		return false
	}

	var sum time.Duration
	for _, d := range p.cache {
		sum += d
	}
	mean := sum / time.Duration(len(p.cache))

	p.history = append(p.history, Point{Seq: seq, Value: mean})
	p.trimHistory(historyCap)

	p.cache = nil
	return true
}

func (p *FunctionProfile) trimHistory(historyCap int) {
	if diff := len(p.history) - historyCap; diff > 0 {
		p.history = append(p.history[:0:0], p.history[diff:]...)
	}
}

// PullLatest returns the most recent averaged duration, or 0 if none exists.
func (p *FunctionProfile) PullLatest() time.Duration {
	if len(p.history) == 0 {
		return 0
	}
	return p.history[len(p.history)-1].Value
}

// Smoothed returns the mean of the last n history values. n <= 1 is the
// same as PullLatest.
func (p *FunctionProfile) Smoothed(n int) time.Duration {
	if n <= 1 {
		return p.PullLatest()
	}
	if len(p.history) == 0 {
		return 0
	}
	if n > len(p.history) {
		n = len(p.history)
	}
	var sum time.Duration
	for _, pt := range p.history[len(p.history)-n:] {
		sum += pt.Value
	}
	return sum / time.Duration(n)
}

// History returns a copy of the averaged history, oldest first.
func (p *FunctionProfile) History() []Point {
	out := make([]Point, len(p.history))
	copy(out, p.history)
	return out
}

// CacheLen returns the number of raw samples awaiting the next resolve.
func (p *FunctionProfile) CacheLen() int {
	return len(p.cache)
}

// CacheCap returns the current cache capacity.
func (p *FunctionProfile) CacheCap() int {
	return p.cacheCap
}
