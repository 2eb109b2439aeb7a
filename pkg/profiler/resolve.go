package profiler

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// minTicksPerResolve debounces resolves so that every region touched in a
// tick has at least one cached sample.
const minTicksPerResolve = 4

// Resolve advances the tick counter and, once UpdateInterval has elapsed
// and enough ticks have passed, averages every cache into one history
// point. queueTree decides whether the next tick builds a call tree.
//
// Switching Settings.Active off forces one final resolve so pending samples
// are flushed rather than lost.
func (p *Profiler) Resolve(queueTree bool) {
	if p.active != p.settings.Active {
		if !p.settings.Active {
			p.resolveAll(false)
			p.logger.Debug("Profiler flushed before going dormant")
		} else {
			p.ticksSinceResolve = 0
			p.lastResolve = p.clk.Now()
			p.logger.Debug("Profiler reactivated")
		}
		p.active = p.settings.Active
	}

	if !p.active {
		return
	}

	p.ticksSinceResolve++
	p.totalTicks++

	if p.clk.Now()-p.lastResolve > p.settings.UpdateInterval && p.ticksSinceResolve >= minTicksPerResolve {
		p.resolveAll(queueTree)
	}
}

func (p *Profiler) resolveAll(queueTree bool) {
	appended := 0
	for _, name := range p.order {
		dropFirst := p.referenceSet && name == p.reference
		if p.profiles[name].Resolve(p.settings.StoredCacheAmount, p.settings.StoredDataAmount, dropFirst, p.totalTicks) {
			appended++
		}
	}

	p.logger.WithFields(logrus.Fields{
		"regions":  len(p.order),
		"appended": appended,
		"ticks":    p.ticksSinceResolve,
		"seq":      p.totalTicks,
	}).Debug("Resolved profiles")
	p.trace("*", "resolve", fmt.Sprintf("%d/%d regions appended, queue tree=%t", appended, len(p.order), queueTree))

	p.queued = queueTree
	p.ticksSinceResolve = 0
	p.lastResolve = p.clk.Now()
}

// TotalTicks returns the number of ticks counted while active.
func (p *Profiler) TotalTicks() uint64 {
	return p.totalTicks
}
