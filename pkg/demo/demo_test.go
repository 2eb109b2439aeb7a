package demo

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danpilch/ticktree/pkg/clock"
	"github.com/danpilch/ticktree/pkg/profiler"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newShared() (*profiler.Shared, *clock.Manual) {
	settings := profiler.DefaultSettings()
	settings.UpdateInterval = 0
	settings.StoredCacheAmount = 8

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.NewManual(time.Second)
	return profiler.NewShared(settings, profiler.Options{Clock: clk, Logger: logger}), clk
}

func TestRun_BuildsTree(t *testing.T) {
	sh, clk := newShared()

	var mu sync.Mutex
	var reports []profiler.Snapshot
	err := Run(context.Background(), sh, Options{
		Duration:      300 * time.Millisecond,
		ReportEvery:   20 * time.Millisecond,
		CallbackEvery: 10 * time.Millisecond,
		Work: func(region string) {
			// the callback runs concurrently and must not stretch loop regions
			if region != RegionCallback {
				clk.Advance(DefaultCosts[region])
			}
		},
		Report: func(s profiler.Snapshot) error {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, s)
			return nil
		},
	})
	require.NoError(t, err)

	mu.Lock()
	assert.NotEmpty(t, reports)
	mu.Unlock()

	snap := sh.Snapshot()
	root, ok := snap.Root()
	require.True(t, ok)
	assert.Equal(t, RegionFrame, root)
	assert.Equal(t, RegionUpdate, snap.OuterMarker)
	assert.Equal(t, RegionFrame, snap.ConstantReference)
	assert.Equal(t, []string{RegionUpdate, RegionRender}, snap.Tree.Children(RegionFrame))
	assert.Equal(t, []string{RegionPhysics, RegionAI}, snap.Tree.Children(RegionUpdate))
	assert.Nil(t, snap.Tree.Node(RegionCallback))

	_, ok = snap.Region(RegionCallback)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Millisecond, snap.Duration(RegionPhysics))
}

func TestRun_ReportErrorStops(t *testing.T) {
	sh, clk := newShared()
	boom := errors.New("sink closed")

	var calls atomic.Int32
	err := Run(context.Background(), sh, Options{
		ReportEvery: 5 * time.Millisecond,
		Work:        func(region string) { clk.Advance(time.Millisecond) },
		Report: func(profiler.Snapshot) error {
			calls.Add(1)
			return boom
		},
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_ContextCancel(t *testing.T) {
	sh, _ := newShared()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, sh, Options{Work: func(string) { time.Sleep(time.Millisecond) }})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("demo did not stop")
	}
	assert.NotEmpty(t, sh.Names())
}
