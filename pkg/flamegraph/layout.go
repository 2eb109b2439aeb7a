// Package flamegraph lays out call trees as depth-ordered, width-proportional
// segments and renders them as SVG flame graphs or folded stacks.
package flamegraph

import (
	"time"

	"github.com/danpilch/ticktree/pkg/tree"
)

// DurationFunc returns the current duration of a region.
type DurationFunc func(name string) time.Duration

// Segment is one region placed on one depth row. Start and Width are
// fractions of the root region's duration.
type Segment struct {
	Name     string        `json:"name"`
	Depth    int           `json:"depth"`
	Duration time.Duration `json:"duration"`
	Start    float64       `json:"start"`
	Width    float64       `json:"width"`
}

// End returns the segment's right edge.
func (s Segment) End() float64 {
	return s.Start + s.Width
}

// Layout is a tree flattened into rows, row 0 holding the root.
type Layout struct {
	Layers [][]Segment   `json:"layers"`
	Total  time.Duration `json:"total"`
}

// NewLayout places every node of t. Children are laid out left to right in
// call order starting at their parent's start, each as wide as its share of
// the root duration. A tree without a root gives an empty layout.
func NewLayout(t *tree.Tree, duration DurationFunc) Layout {
	root, ok := t.Root()
	if !ok {
		return Layout{}
	}

	l := Layout{Total: duration(root)}
	frac := func(d time.Duration) float64 {
		if l.Total <= 0 {
			return 0
		}
		return float64(d) / float64(l.Total)
	}

	onPath := make(map[string]bool)
	var place func(name string, depth int, start float64)
	place = func(name string, depth int, start float64) {
		if onPath[name] {
			return
		}
		d := duration(name)
		l.push(Segment{
			Name:     name,
			Depth:    depth,
			Duration: d,
			Start:    start,
			Width:    frac(d),
		})

		onPath[name] = true
		childStart := start
		for _, child := range t.Children(name) {
			place(child, depth+1, childStart)
			childStart += frac(duration(child))
		}
		onPath[name] = false
	}
	place(root, 0, 0)

	return l
}

func (l *Layout) push(s Segment) {
	for len(l.Layers) < s.Depth+1 {
		l.Layers = append(l.Layers, nil)
	}
	l.Layers[s.Depth] = append(l.Layers[s.Depth], s)
}

// Depth returns the number of rows.
func (l Layout) Depth() int {
	return len(l.Layers)
}

// Segments returns every segment, row by row.
func (l Layout) Segments() []Segment {
	var out []Segment
	for _, layer := range l.Layers {
		out = append(out, layer...)
	}
	return out
}

// Hit returns the segment covering position x on the given row.
func (l Layout) Hit(x float64, depth int) (Segment, bool) {
	if depth < 0 || depth >= len(l.Layers) {
		return Segment{}, false
	}
	for _, s := range l.Layers[depth] {
		if x >= s.Start && x < s.End() {
			return s, true
		}
	}
	return Segment{}, false
}
