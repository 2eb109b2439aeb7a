package output

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/ticktree/pkg/clock"
	"github.com/danpilch/ticktree/pkg/profile"
	"github.com/danpilch/ticktree/pkg/profiler"
)

// sampleSnapshot runs twelve frames of frame{update 2ms, render 3ms}.
func sampleSnapshot(t *testing.T) profiler.Snapshot {
	t.Helper()
	settings := profiler.DefaultSettings()
	settings.StoredCacheAmount = 10
	settings.StoredDataAmount = 5
	settings.UpdateInterval = 0

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.NewManual(time.Second)
	sh := profiler.NewShared(settings, profiler.Options{Clock: clk, Logger: logger})

	for i := 0; i < 12; i++ {
		sh.Time("frame", func() {
			sh.Time("update", func() { clk.Advance(2 * time.Millisecond) })
			sh.Time("render", func() { clk.Advance(3 * time.Millisecond) })
		})
	}
	sh.ToggleFocus("render")

	snap := sh.Snapshot()
	root, ok := snap.Root()
	require.True(t, ok)
	require.Equal(t, "frame", root)
	return snap
}

func render(t *testing.T, format Format, snap profiler.Snapshot, setup func(*Formatter)) string {
	t.Helper()
	var buf bytes.Buffer
	f := NewFormatter(format, &buf)
	if setup != nil {
		setup(f)
	}
	require.NoError(t, f.Render(snap))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "TREE", "json", "ai", "tsv"} {
		_, err := ParseFormat(s)
		require.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestRender_Table(t *testing.T) {
	out := render(t, FormatTable, sampleSnapshot(t), func(f *Formatter) {
		f.SetShowScore(true)
		f.SetBudget(4 * time.Millisecond)
	})

	for _, want := range []string{"REGION", "SMOOTHED", "frame", "update", "render", "2.00ms", "40.0%"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "Overall: frame => 5.00ms (200.00 fps)")
	assert.Contains(t, out, "75/100 (Stuttering, budget 4.00ms)")
}

func TestRender_TableWithoutTree(t *testing.T) {
	sh := profiler.NewShared(profiler.DefaultSettings(), profiler.Options{Clock: clock.NewManual(0)})
	out := render(t, FormatTable, sh.Snapshot(), nil)
	assert.Contains(t, out, "No call tree published yet")
}

func TestRender_Tree(t *testing.T) {
	out := render(t, FormatTree, sampleSnapshot(t), nil)

	assert.Contains(t, out, "frame => 5.00ms\n")
	assert.Contains(t, out, "  update => 2.00ms\n")
	assert.Contains(t, out, "  render => 3.00ms\n")
	assert.Contains(t, out, ".. => 0.00ms")
	assert.Less(t, strings.Index(out, "update =>"), strings.Index(out, "render =>"))
}

func TestRender_JSON(t *testing.T) {
	out := render(t, FormatJSON, sampleSnapshot(t), nil)

	var decoded struct {
		Regions []struct {
			Name     string        `json:"name"`
			Smoothed time.Duration `json:"smoothed"`
		} `json:"regions"`
		Tree map[string]struct {
			Parent   string   `json:"parent"`
			Children []string `json:"children"`
		} `json:"tree"`
		Layout struct {
			Layers [][]struct {
				Name  string  `json:"name"`
				Width float64 `json:"width"`
			} `json:"layers"`
		} `json:"layout"`
		Hotspots   []Hotspot          `json:"hotspots"`
		Selection  profiler.Selection `json:"selection"`
		TotalTicks uint64             `json:"total_ticks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	require.Len(t, decoded.Regions, 3)
	assert.Equal(t, 5*time.Millisecond, decoded.Regions[0].Smoothed)
	assert.Equal(t, []string{"update", "render"}, decoded.Tree["frame"].Children)
	assert.Equal(t, "frame", decoded.Tree["render"].Parent)
	require.Len(t, decoded.Layout.Layers, 2)
	assert.InDelta(t, 0.6, decoded.Layout.Layers[1][1].Width, 1e-9)
	assert.Equal(t, "render", decoded.Hotspots[0].Name)
	assert.Equal(t, []string{"render"}, decoded.Selection.Focused)
	assert.Equal(t, uint64(11), decoded.TotalTicks)
}

func TestRender_TSV(t *testing.T) {
	out := render(t, FormatTSV, sampleSnapshot(t), nil)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "REGION\tPARENT\tLATEST_MS\tSMOOTHED_MS\tSHARE\tHISTORY", lines[0])
	assert.Equal(t, "frame\t\t5.0000\t5.0000\t1.0000\t2", lines[1])
	assert.Equal(t, "update\tframe\t2.0000\t2.0000\t0.4000\t2", lines[2])
}

func TestRender_AI(t *testing.T) {
	out := render(t, FormatAI, sampleSnapshot(t), nil)

	assert.Contains(t, out, "# Tick Profile: Smooth")
	assert.Contains(t, out, "1. `render` self 3.00ms")
	assert.Contains(t, out, "| update | 2.00ms | 2.00ms | 40.0% | 2 |")

	sh := profiler.NewShared(profiler.DefaultSettings(), profiler.Options{Clock: clock.NewManual(0)})
	assert.Contains(t, render(t, FormatAI, sh.Snapshot(), nil), "no call tree yet")
}

func TestHotspots(t *testing.T) {
	snap := sampleSnapshot(t)

	all := Hotspots(snap, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "render", all[0].Name)
	assert.Equal(t, 3*time.Millisecond, all[0].Self)
	assert.InDelta(t, 0.6, all[0].Share, 1e-9)
	assert.Equal(t, "frame", all[2].Name)
	assert.Equal(t, time.Duration(0), all[2].Self)

	assert.Len(t, Hotspots(snap, 1), 1)
}

func TestBudgetScore(t *testing.T) {
	tests := []struct {
		name   string
		tick   time.Duration
		budget time.Duration
		want   int
		label  string
	}{
		{"within budget", 10 * time.Millisecond, 16 * time.Millisecond, 100, "Smooth"},
		{"no budget", time.Second, 0, 100, "Smooth"},
		{"quarter over", 5 * time.Millisecond, 4 * time.Millisecond, 75, "Stuttering"},
		{"double", 8 * time.Millisecond, 4 * time.Millisecond, 0, "Over budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetScore(tt.tick, tt.budget)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.label, ScoreLabel(got))
		})
	}

	assert.InDelta(t, 200.0, FPS(5*time.Millisecond), 1e-9)
	assert.Zero(t, FPS(0))
}

func TestHistorySparkline(t *testing.T) {
	assert.Empty(t, HistorySparkline(nil))

	got := HistorySparkline([]profile.Point{
		{Seq: 4, Value: time.Millisecond},
		{Seq: 8, Value: 8 * time.Millisecond},
		{Seq: 12, Value: time.Millisecond},
	})
	assert.Equal(t, "▁█▁", got)

	flat := HistorySparkline([]profile.Point{{Value: 2}, {Value: 2}})
	assert.Equal(t, "▁▁", flat)
}
