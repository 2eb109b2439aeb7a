package profiler

import (
	"errors"
	"fmt"
)

// ErrBoundaryMismatch is matched by every *BoundaryError.
var ErrBoundaryMismatch = errors.New("loop boundary mismatch")

// BoundaryError reports a tick whose outer marker did not close it: the
// region that started the tick is not the last region that ended. The
// recorded tree would be meaningless, so this is fatal.
type BoundaryError struct {
	Outer     string
	LastEnded string
}

func (e *BoundaryError) Error() string {
	last := e.LastEnded
	if last == "" {
		last = "<none>"
	}
	return fmt.Sprintf("%s: outer region %q started a new tick but the last region to end was %q; "+
		"wrap the whole loop in one region or call SetConstantReference once per tick",
		ErrBoundaryMismatch, e.Outer, last)
}

// Is makes errors.Is(err, ErrBoundaryMismatch) succeed.
func (e *BoundaryError) Is(target error) bool {
	return target == ErrBoundaryMismatch
}
