package output

import (
	"sort"
	"time"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// Hotspot is a region ranked by the time spent in it outside its children.
type Hotspot struct {
	Name  string        `json:"name"`
	Self  time.Duration `json:"self"`
	Total time.Duration `json:"total"`
	// Share is Self relative to the tick duration.
	Share float64 `json:"share"`
}

// Hotspots returns up to n regions of the published tree ordered by self
// time. n <= 0 returns all of them.
func Hotspots(snap profiler.Snapshot, n int) []Hotspot {
	tick := snap.TickDuration()
	seen := make(map[string]bool)
	var spots []Hotspot

	snap.Tree.Walk(func(name string, _ int) bool {
		if seen[name] {
			return true
		}
		seen[name] = true

		total := snap.Duration(name)
		self := total
		for _, c := range snap.Tree.Children(name) {
			self -= snap.Duration(c)
		}
		if self < 0 {
			self = 0
		}
		h := Hotspot{Name: name, Self: self, Total: total}
		if tick > 0 {
			h.Share = float64(self) / float64(tick)
		}
		spots = append(spots, h)
		return true
	})

	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].Self > spots[j].Self
	})
	if n > 0 && len(spots) > n {
		spots = spots[:n]
	}
	return spots
}
