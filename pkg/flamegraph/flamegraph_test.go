package flamegraph

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danpilch/ticktree/pkg/tree"
)

func sampleTree() (*tree.Tree, DurationFunc) {
	t := tree.New()
	t.SetRoot("main")
	t.AddChild("main", "update")
	t.AddChild("update", "physics")
	t.AddChild("update", "ai")
	t.AddChild("main", "render")

	durations := map[string]time.Duration{
		"main":    100 * time.Millisecond,
		"update":  60 * time.Millisecond,
		"physics": 30 * time.Millisecond,
		"ai":      20 * time.Millisecond,
		"render":  25 * time.Millisecond,
	}
	return t, func(name string) time.Duration { return durations[name] }
}

func TestNewLayout(t *testing.T) {
	tr, dur := sampleTree()
	l := NewLayout(tr, dur)

	require.Equal(t, 100*time.Millisecond, l.Total)
	require.Equal(t, 3, l.Depth())

	require.Equal(t, []Segment{
		{Name: "main", Depth: 0, Duration: 100 * time.Millisecond, Start: 0, Width: 1},
	}, l.Layers[0])

	row1 := l.Layers[1]
	require.Len(t, row1, 2)
	require.Equal(t, "update", row1[0].Name)
	require.InDelta(t, 0.0, row1[0].Start, 1e-9)
	require.InDelta(t, 0.6, row1[0].Width, 1e-9)
	require.Equal(t, "render", row1[1].Name)
	require.InDelta(t, 0.6, row1[1].Start, 1e-9)
	require.InDelta(t, 0.25, row1[1].Width, 1e-9)

	row2 := l.Layers[2]
	require.Len(t, row2, 2)
	require.Equal(t, "physics", row2[0].Name)
	require.InDelta(t, 0.3, row2[0].Width, 1e-9)
	require.Equal(t, "ai", row2[1].Name)
	require.InDelta(t, 0.3, row2[1].Start, 1e-9)
	require.InDelta(t, 0.5, row2[1].End(), 1e-9)

	require.Len(t, l.Segments(), 5)
}

func TestNewLayout_EmptyAndZero(t *testing.T) {
	require.Zero(t, NewLayout(tree.New(), func(string) time.Duration { return time.Second }).Depth())

	tr, _ := sampleTree()
	l := NewLayout(tr, func(string) time.Duration { return 0 })
	require.Equal(t, 3, l.Depth())
	for _, s := range l.Segments() {
		require.Zero(t, s.Width)
	}
}

func TestLayout_Hit(t *testing.T) {
	tr, dur := sampleTree()
	l := NewLayout(tr, dur)

	s, ok := l.Hit(0.7, 1)
	require.True(t, ok)
	require.Equal(t, "render", s.Name)

	_, ok = l.Hit(0.9, 1)
	require.False(t, ok)
	_, ok = l.Hit(0.1, 7)
	require.False(t, ok)
}

func TestWriteSVG(t *testing.T) {
	tr, dur := sampleTree()
	opts := DefaultSVGOptions()
	opts.Focused = []string{"physics"}

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, NewLayout(tr, dur), opts))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))
	require.True(t, strings.HasSuffix(out, "</svg>\n"))
	require.Contains(t, out, "<title>update (60ms, 60.0%)</title>")
	require.Equal(t, 1, strings.Count(out, `class="func focused"`))
	require.Equal(t, 5, strings.Count(out, "<g class="))
}

func TestWriteSVG_EmptyLayout(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteSVG(&buf, Layout{}, DefaultSVGOptions()))
}

func TestWriteCollapsed(t *testing.T) {
	tr, dur := sampleTree()

	var buf bytes.Buffer
	require.NoError(t, WriteCollapsed(&buf, tr, dur))
	require.Equal(t, strings.Join([]string{
		"main 15000",
		"main;render 25000",
		"main;update 10000",
		"main;update;ai 20000",
		"main;update;physics 30000",
	}, "\n")+"\n", buf.String())

	require.Error(t, WriteCollapsed(&buf, tree.New(), dur))
}
