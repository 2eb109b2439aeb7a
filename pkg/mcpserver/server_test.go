package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/ticktree/pkg/clock"
	"github.com/danpilch/ticktree/pkg/profiler"
)

func newShared(t *testing.T) *profiler.Shared {
	t.Helper()
	settings := profiler.DefaultSettings()
	settings.StoredCacheAmount = 10
	settings.UpdateInterval = 0

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clk := clock.NewManual(time.Second)
	sh := profiler.NewShared(settings, profiler.Options{Clock: clk, Logger: logger})

	for i := 0; i < 8; i++ {
		sh.Time("frame", func() {
			sh.Time("update", func() { clk.Advance(4 * time.Millisecond) })
			sh.Time("render", func() { clk.Advance(6 * time.Millisecond) })
		})
	}
	return sh
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestToolNames(t *testing.T) {
	h := NewHandlers(newShared(t))
	assert.Equal(t, []string{
		"list_regions", "get_history", "get_tree", "get_layout",
		"get_report", "get_settings", "update_settings",
	}, h.ToolNames())

	require.NotNil(t, New(newShared(t), "test"))
}

func TestListRegions(t *testing.T) {
	h := NewHandlers(newShared(t))
	out, isErr := call(t, h.ListRegions, nil)
	require.False(t, isErr)

	var rows []regionRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "frame", rows[0].Name)
	assert.InDelta(t, 10.0, rows[0].SmoothedMS, 1e-9)
	assert.Equal(t, "frame", rows[2].Parent)
	assert.Equal(t, 1, rows[1].Points)
}

func TestGetHistory(t *testing.T) {
	h := NewHandlers(newShared(t))

	out, isErr := call(t, h.GetHistory, map[string]any{"region": "render"})
	require.False(t, isErr)
	assert.JSONEq(t, `[{"seq": 4, "value_ms": 6}]`, out)

	out, isErr = call(t, h.GetHistory, map[string]any{"region": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, out, "Unknown region")

	_, isErr = call(t, h.GetHistory, nil)
	assert.True(t, isErr)
}

func TestGetTreeAndLayout(t *testing.T) {
	h := NewHandlers(newShared(t))

	out, isErr := call(t, h.GetTree, nil)
	require.False(t, isErr)
	assert.Contains(t, out, "frame => 10.00ms")
	assert.Contains(t, out, "  render => 6.00ms")

	out, isErr = call(t, h.GetLayout, nil)
	require.False(t, isErr)
	var layout struct {
		Layers [][]struct {
			Name  string  `json:"name"`
			Start float64 `json:"start"`
			Width float64 `json:"width"`
		} `json:"layers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &layout))
	require.Len(t, layout.Layers, 2)
	assert.Equal(t, "render", layout.Layers[1][1].Name)
	assert.InDelta(t, 0.4, layout.Layers[1][1].Start, 1e-9)
	assert.InDelta(t, 0.6, layout.Layers[1][1].Width, 1e-9)

	empty := NewHandlers(profiler.NewShared(profiler.DefaultSettings(), profiler.Options{}))
	_, isErr = call(t, empty.GetLayout, nil)
	assert.True(t, isErr)
}

func TestGetReport(t *testing.T) {
	h := NewHandlers(newShared(t))

	out, isErr := call(t, h.GetReport, nil)
	require.False(t, isErr)
	assert.Contains(t, out, "# Tick Profile: Smooth")

	out, isErr = call(t, h.GetReport, map[string]any{"budget_ms": 5.0})
	require.False(t, isErr)
	assert.Contains(t, out, "# Tick Profile: Over budget")

	_, isErr = call(t, h.GetReport, map[string]any{"budget_ms": -1.0})
	assert.True(t, isErr)
}

func TestUpdateSettings(t *testing.T) {
	sh := newShared(t)
	h := NewHandlers(sh)

	_, isErr := call(t, h.UpdateSettings, map[string]any{
		"smoothing_amount": 4.0,
		"update_interval":  "250ms",
		"active":           false,
	})
	require.False(t, isErr)

	s := sh.Settings()
	assert.Equal(t, 4, s.SmoothingAmount)
	assert.Equal(t, 250*time.Millisecond, s.UpdateInterval)
	assert.False(t, s.Active)
	assert.Equal(t, 10, s.StoredCacheAmount)

	out, isErr := call(t, h.GetSettings, nil)
	require.False(t, isErr)
	assert.Contains(t, out, `"smoothing_amount": 4`)
}

func TestUpdateSettings_Rejected(t *testing.T) {
	sh := newShared(t)
	h := NewHandlers(sh)
	before := sh.Settings()

	out, isErr := call(t, h.UpdateSettings, map[string]any{
		"smoothing_amount":   2.0,
		"stored_data_amount": 0.0,
	})
	assert.True(t, isErr)
	assert.Contains(t, out, "stored_data_amount")
	assert.Equal(t, before, sh.Settings())

	_, isErr = call(t, h.UpdateSettings, map[string]any{"update_interval": "often"})
	assert.True(t, isErr)
	assert.Equal(t, before, sh.Settings())
}
