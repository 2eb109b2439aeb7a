package profiler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/ticktree/pkg/profile"
	"github.com/danpilch/ticktree/pkg/tree"
)

// Shared owns one Profiler behind a coarse lock. Every mutation holds the
// write lock for its full duration; reads hold the read lock.
//
// Construct it once with NewShared before the first instrumented call and
// hand it to everything that records or reads.
type Shared struct {
	mu sync.RWMutex
	p  *Profiler
}

// NewShared creates a profiler and its owning handle.
func NewShared(settings Settings, opts Options) *Shared {
	return &Shared{p: New(settings, opts)}
}

// Open runs fn with exclusive access to the profiler.
func (s *Shared) Open(fn func(p *Profiler)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.p)
}

// View runs fn with shared access. fn must not mutate the profiler.
func (s *Shared) View(fn func(p *Profiler)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.p)
}

// fatal escalates a loop-boundary mismatch. It is called without the lock held.
func (s *Shared) fatal(err error) {
	s.p.logger.WithError(err).Error("Unrecoverable profiler configuration")
	panic(err)
}

// StartEvent starts a tree region. It panics with a *BoundaryError when the
// loop boundary cannot be inferred.
func (s *Shared) StartEvent(name string) {
	s.mu.Lock()
	err := s.p.StartEvent(name)
	s.mu.Unlock()
	if err != nil {
		s.fatal(err)
	}
}

// EndEvent ends a tree region.
func (s *Shared) EndEvent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.EndEvent(name)
}

// StartFunction starts timing a region outside the call tree.
func (s *Shared) StartFunction(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.StartFunction(name)
}

// EndFunction ends timing a region outside the call tree.
func (s *Shared) EndFunction(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.EndFunction(name)
}

// SetConstantReference marks a synthetic per-tick root. Call once per tick.
func (s *Shared) SetConstantReference(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.SetConstantReference(name)
}

// Resolve runs the periodic resolve step.
func (s *Shared) Resolve(queueTree bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Resolve(queueTree)
}

// ChangeSettings lets fn edit the settings. Effective immediately, applied
// at the next resolve.
func (s *Shared) ChangeSettings(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.p.settings
	s.p.ChangeSettings(fn)
	if before != s.p.settings {
		s.p.logger.WithFields(logrus.Fields{
			"active":              s.p.settings.Active,
			"stored_data_amount":  s.p.settings.StoredDataAmount,
			"stored_cache_amount": s.p.settings.StoredCacheAmount,
			"update_interval":     s.p.settings.UpdateInterval,
			"smoothing_amount":    s.p.settings.SmoothingAmount,
		}).Debug("Settings changed")
	}
}

// ToggleFocus toggles name in the shared selection.
func (s *Shared) ToggleFocus(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.ToggleFocus(name)
}

// SetHovered records the hovered region.
func (s *Shared) SetHovered(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.SetHovered(name)
}

// ClearFocus empties the focused set.
func (s *Shared) ClearFocus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.ClearFocus()
}

// Settings returns a copy of the current settings.
func (s *Shared) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Settings()
}

// LatestTree returns the last published call tree. Treat it as read-only.
func (s *Shared) LatestTree() *tree.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.LatestTree()
}

// History returns a copy of name's history, or nil.
func (s *Shared) History(name string) []profile.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.History(name)
}

// Latest returns name's latest averaged duration, or 0.
func (s *Shared) Latest(name string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Latest(name)
}

// Names returns every tracked region in first-seen order.
func (s *Shared) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Names()
}

// Snapshot returns a consistent copy of the read state.
func (s *Shared) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Snapshot()
}
