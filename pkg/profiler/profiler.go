// Package profiler records nested timed regions from a repeating update
// loop, infers the call tree from the loop boundary and publishes periodic
// snapshots of rolling per-region averages.
package profiler

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/ticktree/pkg/clock"
	"github.com/danpilch/ticktree/pkg/profile"
	"github.com/danpilch/ticktree/pkg/tree"
)

// Tracer receives step-by-step profiler events.
type Tracer interface {
	Log(region, step, detail string)
}

// Options carries the profiler's collaborators. Zero values are replaced
// with defaults.
type Options struct {
	Clock  clock.Clock
	Logger *logrus.Logger
	Tracer Tracer
}

// Profiler is the aggregate root: per-region profiles, the double-buffered
// tree and the loop-boundary state. It is not safe for concurrent use;
// share it through Shared.
type Profiler struct {
	settings Settings
	// active is the effective active flag. It trails settings.Active until
	// the next resolve so that switching off can flush first.
	active bool

	profiles map[string]*profile.FunctionProfile
	order    []string

	latestTree *tree.Tree
	activeTree *tree.Tree
	// queued is the last resolve decision: build a tree from the next tick.
	queued bool
	// building is set while activeTree is being filled for the current tick.
	building bool
	stack    []string

	outer        string
	outerSet     bool
	lastEnded    string
	lastEndedSet bool
	reference    string
	referenceSet bool

	ticksSinceResolve int
	totalTicks        uint64
	lastResolve       time.Duration

	selection Selection

	clk    clock.Clock
	logger *logrus.Logger
	tracer Tracer
}

// New creates a profiler. State starts empty.
func New(settings Settings, opts Options) *Profiler {
	if opts.Clock == nil {
		opts.Clock = clock.NewMonotonic()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetLevel(logrus.WarnLevel)
	}
	return &Profiler{
		settings:    settings,
		active:      settings.Active,
		profiles:    make(map[string]*profile.FunctionProfile),
		latestTree:  tree.New(),
		activeTree:  tree.New(),
		lastResolve: opts.Clock.Now(),
		clk:         opts.Clock,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
	}
}

func (p *Profiler) trace(region, step, detail string) {
	if p.tracer != nil {
		p.tracer.Log(region, step, detail)
	}
}

func (p *Profiler) lookup(name string) *profile.FunctionProfile {
	prof, ok := p.profiles[name]
	if !ok {
		prof = profile.New(p.clk, p.settings.StoredCacheAmount)
		p.profiles[name] = prof
		p.order = append(p.order, name)
	}
	return prof
}

// StartFunction starts timing name without touching the call tree.
func (p *Profiler) StartFunction(name string) {
	if !p.active {
		return
	}
	p.lookup(name).Start()
}

// EndFunction ends timing name without touching the call tree. Ending a
// region that was never started records a zero-length sample.
func (p *Profiler) EndFunction(name string) {
	if !p.active {
		return
	}
	p.lookup(name).End()
}

// StartEvent starts a tree region. The first name ever seen becomes the
// loop-boundary marker; each later start of that name completes a tick.
// Regions started while a tree is being built become children of the
// innermost open region.
//
// The only error is a *BoundaryError, which is fatal for the caller.
func (p *Profiler) StartEvent(name string) error {
	var err error
	switch {
	case !p.outerSet:
		p.outer = name
		p.outerSet = true
		p.logger.WithField("marker", name).Info("Loop boundary marker selected")
		p.trace(name, "marker", "first region seen")
	case name == p.outer:
		err = p.completeTick()
	case p.building && len(p.stack) > 0:
		p.activeTree.AddChild(p.stack[len(p.stack)-1], name)
		p.stack = append(p.stack, name)
	}

	p.StartFunction(name)
	return err
}

// EndEvent ends a tree region. Callers guarantee proper nesting.
func (p *Profiler) EndEvent(name string) {
	p.EndFunction(name)

	p.lastEnded = name
	p.lastEndedSet = true

	if p.building && len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// SetConstantReference declares a synthetic root timed once per tick, for
// loops with no single enclosing region. Call it once per tick; the first
// call fixes the reference name and later calls close the previous tick's
// timing before starting the next.
func (p *Profiler) SetConstantReference(name string) {
	if !p.referenceSet {
		p.reference = name
		p.referenceSet = true
		p.logger.WithField("reference", name).Info("Constant reference set")
	} else {
		p.EndFunction(name)
	}
	p.StartFunction(name)
}

// completeTick runs at every recurrence of the outer marker: resolve, then
// publish the tree built during the finished tick and set up the next one.
func (p *Profiler) completeTick() error {
	p.Resolve(true)

	if p.building {
		p.publish()
	}
	p.building = false
	p.stack = p.stack[:0]

	if !p.queued {
		return nil
	}

	if !p.referenceSet {
		if !p.lastEndedSet || p.lastEnded != p.outer {
			return &BoundaryError{Outer: p.outer, LastEnded: p.lastEnded}
		}
		p.activeTree.SetRoot(p.outer)
		p.stack = append(p.stack, p.outer)
	} else {
		p.activeTree.SetRoot(p.reference)
		p.stack = append(p.stack, p.reference)
		p.activeTree.AddChild(p.reference, p.outer)
		p.stack = append(p.stack, p.outer)
	}
	p.building = true
	p.trace(p.outer, "build", "tree build started")
	return nil
}

// publish moves the finished tree into the latest slot. The published tree
// is never written again.
func (p *Profiler) publish() {
	p.latestTree = p.activeTree
	p.activeTree = tree.New()

	root, _ := p.latestTree.Root()
	p.logger.WithFields(logrus.Fields{
		"root":  root,
		"nodes": p.latestTree.Len(),
	}).Debug("Published call tree")
	p.trace(root, "publish", "call tree published")
}

// Settings returns a copy of the current settings.
func (p *Profiler) Settings() Settings {
	return p.settings
}

// ChangeSettings lets fn edit the settings in place.
func (p *Profiler) ChangeSettings(fn func(*Settings)) {
	fn(&p.settings)
}

// LatestTree returns the last fully built call tree. It is empty until the
// first build completes and must be treated as read-only.
func (p *Profiler) LatestTree() *tree.Tree {
	return p.latestTree
}

// Names returns every tracked region in first-seen order.
func (p *Profiler) Names() []string {
	return append([]string(nil), p.order...)
}

// History returns a copy of name's averaged history, or nil if unknown.
func (p *Profiler) History(name string) []profile.Point {
	prof, ok := p.profiles[name]
	if !ok {
		return nil
	}
	return prof.History()
}

// Latest returns name's most recent averaged duration, or 0.
func (p *Profiler) Latest(name string) time.Duration {
	prof, ok := p.profiles[name]
	if !ok {
		return 0
	}
	return prof.PullLatest()
}

// Smoothed returns name's duration averaged over SmoothingAmount history
// points, or 0.
func (p *Profiler) Smoothed(name string) time.Duration {
	prof, ok := p.profiles[name]
	if !ok {
		return 0
	}
	return prof.Smoothed(p.settings.SmoothingAmount)
}

// OuterMarker returns the loop-boundary marker, if one has been seen.
func (p *Profiler) OuterMarker() (string, bool) {
	return p.outer, p.outerSet
}

// ConstantReference returns the constant reference, if one is set.
func (p *Profiler) ConstantReference() (string, bool) {
	return p.reference, p.referenceSet
}
