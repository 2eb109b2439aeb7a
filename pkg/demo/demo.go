// Package demo drives a simulated host loop through a shared profiler so
// the reporting surfaces have something to show.
package demo

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// Region names used by the simulated loop.
const (
	RegionFrame    = "frame"
	RegionUpdate   = "update"
	RegionPhysics  = "physics"
	RegionAI       = "ai"
	RegionRender   = "render"
	RegionCallback = "audio callback"
)

// DefaultCosts is the simulated cost of each leaf region.
var DefaultCosts = map[string]time.Duration{
	RegionPhysics:  3 * time.Millisecond,
	RegionAI:       2 * time.Millisecond,
	RegionRender:   5 * time.Millisecond,
	RegionCallback: time.Millisecond,
}

// Options configures a demo run.
type Options struct {
	// Duration bounds the run. Zero runs until ctx is done.
	Duration time.Duration
	// ReportEvery is the snapshot reporting period. Zero disables reports.
	ReportEvery time.Duration
	// Report receives periodic snapshots. An error stops the run.
	Report func(profiler.Snapshot) error
	// CallbackEvery is the period of the callback running outside the loop.
	// Zero disables it.
	CallbackEvery time.Duration
	// Work simulates the body of a leaf region. Defaults to sleeping for
	// the region's DefaultCosts entry.
	Work   func(region string)
	Logger *logrus.Logger
}

func sleepWork(region string) {
	time.Sleep(DefaultCosts[region])
}

// Run drives the host loop, the out-of-loop callback and the reporter until
// the duration elapses or ctx is done. It returns the first reporter error.
func Run(ctx context.Context, sh *profiler.Shared, opts Options) error {
	if opts.Work == nil {
		opts.Work = sleepWork
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetLevel(logrus.WarnLevel)
	}
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticks := runLoop(ctx, sh, opts.Work)
		opts.Logger.WithField("ticks", ticks).Debug("Host loop stopped")
		return nil
	})

	if opts.CallbackEvery > 0 {
		g.Go(func() error {
			return every(ctx, opts.CallbackEvery, func() error {
				defer sh.LoneScope(RegionCallback).End()
				opts.Work(RegionCallback)
				return nil
			})
		})
	}

	if opts.ReportEvery > 0 && opts.Report != nil {
		g.Go(func() error {
			return every(ctx, opts.ReportEvery, func() error {
				return opts.Report(sh.Snapshot())
			})
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// runLoop runs ticks of update{physics, ai} then render until ctx is done.
// The loop has no single enclosing region, so the frame is timed through a
// constant reference.
func runLoop(ctx context.Context, sh *profiler.Shared, work func(string)) int {
	ticks := 0
	for ctx.Err() == nil {
		sh.Time(RegionUpdate, func() {
			sh.Time(RegionPhysics, func() { work(RegionPhysics) })
			sh.Time(RegionAI, func() { work(RegionAI) })
		})
		sh.Time(RegionRender, func() { work(RegionRender) })
		sh.SetConstantReference(RegionFrame)
		ticks++
	}
	return ticks
}

func every(ctx context.Context, period time.Duration, fn func() error) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(); err != nil {
				return err
			}
		}
	}
}
