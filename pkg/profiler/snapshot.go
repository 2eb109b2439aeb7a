package profiler

import (
	"time"

	"github.com/danpilch/ticktree/pkg/profile"
	"github.com/danpilch/ticktree/pkg/tree"
)

// RegionStats is the read view of one region.
type RegionStats struct {
	Name     string          `json:"name"`
	Latest   time.Duration   `json:"latest"`
	Smoothed time.Duration   `json:"smoothed"`
	History  []profile.Point `json:"history"`
}

// Snapshot is a consistent copy of everything readers need. The tree is the
// published one and is shared, not copied.
type Snapshot struct {
	Settings          Settings      `json:"settings"`
	Tree              *tree.Tree    `json:"-"`
	Regions           []RegionStats `json:"regions"`
	Selection         Selection     `json:"selection"`
	OuterMarker       string        `json:"outer_marker,omitempty"`
	ConstantReference string        `json:"constant_reference,omitempty"`
	TotalTicks        uint64        `json:"total_ticks"`

	index map[string]int
}

// Snapshot copies the current read state.
func (p *Profiler) Snapshot() Snapshot {
	s := Snapshot{
		Settings:          p.settings,
		Tree:              p.latestTree,
		Selection:         p.Selection(),
		OuterMarker:       p.outer,
		ConstantReference: p.reference,
		TotalTicks:        p.totalTicks,
		Regions:           make([]RegionStats, 0, len(p.order)),
		index:             make(map[string]int, len(p.order)),
	}
	for i, name := range p.order {
		s.index[name] = i
		prof := p.profiles[name]
		s.Regions = append(s.Regions, RegionStats{
			Name:     name,
			Latest:   prof.PullLatest(),
			Smoothed: prof.Smoothed(p.settings.SmoothingAmount),
			History:  prof.History(),
		})
	}
	return s
}

// Region returns the stats for name.
func (s Snapshot) Region(name string) (RegionStats, bool) {
	if i, ok := s.index[name]; ok && i < len(s.Regions) && s.Regions[i].Name == name {
		return s.Regions[i], true
	}
	for _, r := range s.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return RegionStats{}, false
}

// Duration returns name's smoothed duration, or 0 if unknown.
func (s Snapshot) Duration(name string) time.Duration {
	r, _ := s.Region(name)
	return r.Smoothed
}

// Root returns the published tree's root, if any.
func (s Snapshot) Root() (string, bool) {
	return s.Tree.Root()
}

// TickDuration returns the root region's smoothed duration, or 0.
func (s Snapshot) TickDuration() time.Duration {
	root, ok := s.Root()
	if !ok {
		return 0
	}
	return s.Duration(root)
}
