// Package benchmark provides self-benchmarking to validate instrumentation
// overhead.
package benchmark

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
	// Settings is applied to every scenario's profiler.
	Settings profiler.Settings
	Logger   *logrus.Logger
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 10000,
		Warmup:     100,
		Settings:   profiler.DefaultSettings(),
	}
}

// Scenario is one instrumentation operation measured in isolation.
type Scenario struct {
	Name string
	// Setup prepares a fresh profiler before warmup.
	Setup func(sh *profiler.Shared)
	Op    func(sh *profiler.Shared)
}

// Scenarios returns the instrumentation paths a host loop exercises.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name: "event pair",
			Op: func(sh *profiler.Shared) {
				sh.StartEvent("tick")
				sh.EndEvent("tick")
			},
		},
		{
			Name: "scope guard",
			Op: func(sh *profiler.Shared) {
				outer := sh.Scope("tick")
				sh.Scope("child").End()
				outer.End()
			},
		},
		{
			Name: "lone function",
			Op: func(sh *profiler.Shared) {
				sh.StartFunction("callback")
				sh.EndFunction("callback")
			},
		},
		{
			Name: "resolve pass",
			Setup: func(sh *profiler.Shared) {
				for i := 0; i < 32; i++ {
					name := fmt.Sprintf("region-%02d", i)
					sh.StartFunction(name)
					sh.EndFunction(name)
				}
			},
			Op: func(sh *profiler.Shared) {
				sh.Resolve(false)
			},
		},
	}
}

// Result holds benchmark results for a single scenario.
type Result struct {
	Scenario  string
	Latencies []time.Duration
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Mean      time.Duration
	// StdDev is the latency standard deviation in nanoseconds.
	StdDev float64
}

// Overhead holds the allocation cost of a run.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Run benchmarks each scenario against its own profiler.
func Run(scenarios []Scenario, opts Options) []Result {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	var results []Result
	for _, sc := range scenarios {
		sh := profiler.NewShared(opts.Settings, profiler.Options{Logger: logger})
		if sc.Setup != nil {
			sc.Setup(sh)
		}

		// Warmup
		for i := 0; i < opts.Warmup; i++ {
			sc.Op(sh)
		}

		// Benchmark
		latencies := make([]time.Duration, opts.Iterations)
		values := make([]float64, opts.Iterations)
		for i := 0; i < opts.Iterations; i++ {
			start := time.Now()
			sc.Op(sh)
			latencies[i] = time.Since(start)
			values[i] = float64(latencies[i])
		}

		// Sort latencies for percentile calculation
		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		result := Result{
			Scenario:  sc.Name,
			Latencies: latencies,
			P50:       percentile(latencies, 0.50),
			P95:       percentile(latencies, 0.95),
			P99:       percentile(latencies, 0.99),
			Mean:      time.Duration(mean(values)),
			StdDev:    stddev(values),
		}
		logger.WithFields(logrus.Fields{
			"scenario": sc.Name,
			"p50":      result.P50,
			"p99":      result.P99,
		}).Debug("Scenario benchmarked")
		results = append(results, result)
	}

	return results
}

// MeasureOverhead returns the allocations made while fn runs.
func MeasureOverhead(fn func()) Overhead {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)

	return Overhead{
		AllocBytes: after.TotalAlloc - before.TotalAlloc,
		AllocCount: after.Mallocs - before.Mallocs,
		GCPauses:   after.NumGC - before.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, results []Result, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Instrumentation Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 70)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		bmHeader.Render("SCENARIO           "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("STDDEV (ns)"))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 70)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-20s %-12v %-12v %-12v %.1f\n",
			r.Scenario, r.P50, r.P95, r.P99, r.StdDev)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Benchmark Allocations"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(formatBytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	mean := sum / n
	variance := (sumSq / n) - (mean * mean)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
