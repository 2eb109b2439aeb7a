package profiler

import "sync"

// Scope times one region from creation until End. Use it with defer so the
// region is closed on every exit path:
//
//	defer shared.Scope("physics").End()
type Scope struct {
	s    *Shared
	name string
	lone bool
	once sync.Once
}

// Scope starts a tree region and returns its guard.
func (s *Shared) Scope(name string) *Scope {
	s.StartEvent(name)
	return &Scope{s: s, name: name}
}

// LoneScope starts a region that stays out of the call tree.
func (s *Shared) LoneScope(name string) *Scope {
	s.StartFunction(name)
	return &Scope{s: s, name: name, lone: true}
}

// End closes the region. Calls after the first do nothing.
func (sc *Scope) End() {
	sc.once.Do(func() {
		if sc.lone {
			sc.s.EndFunction(sc.name)
			return
		}
		sc.s.EndEvent(sc.name)
	})
}

// Time runs fn inside a tree region. The region is closed even if fn panics.
func (s *Shared) Time(name string, fn func()) {
	defer s.Scope(name).End()
	fn()
}

// TimeErr is Time for functions that return an error.
func (s *Shared) TimeErr(name string, fn func() error) error {
	defer s.Scope(name).End()
	return fn()
}
