package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/danpilch/ticktree/pkg/profiler"
)

var _ profiler.Tracer = (*TraceLogger)(nil)

// TraceLogger writes step-by-step profiler events: marker discovery, tree
// builds, resolve passes and publications.
type TraceLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	only    map[string]bool
	now     func() time.Time
}

// NewTraceLogger creates a trace logger writing to the given writer.
func NewTraceLogger(w io.Writer) *TraceLogger {
	if w == nil {
		w = defaultTraceWriter()
	}
	return &TraceLogger{
		writer:  w,
		enabled: true,
		now:     time.Now,
	}
}

// Only restricts tracing to the named regions. No names traces everything.
func (t *TraceLogger) Only(regions ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(regions) == 0 {
		t.only = nil
		return
	}
	t.only = make(map[string]bool, len(regions))
	for _, r := range regions {
		t.only[r] = true
	}
}

// SetEnabled turns tracing on or off.
func (t *TraceLogger) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// Log records a trace entry for a profiler step.
func (t *TraceLogger) Log(region, step, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.wants(region) {
		return
	}
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s - %s\n",
		t.now().Format("15:04:05.000"), region, step, detail)
}

// LogDuration records a measured duration for a region.
func (t *TraceLogger) LogDuration(region, step string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.wants(region) {
		return
	}
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s=%.4fms\n",
		t.now().Format("15:04:05.000"), region, step, float64(d)/float64(time.Millisecond))
}

// wants must be called with mu held.
func (t *TraceLogger) wants(region string) bool {
	if !t.enabled {
		return false
	}
	return t.only == nil || t.only[region]
}

// defaultTraceWriter returns stderr for trace output.
func defaultTraceWriter() io.Writer {
	return os.Stderr
}
