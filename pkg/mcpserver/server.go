// Package mcpserver exposes a running profiler to MCP clients over stdio:
// region statistics, the published call tree, its flame layout and the
// live settings.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/danpilch/ticktree/pkg/flamegraph"
	"github.com/danpilch/ticktree/pkg/output"
	"github.com/danpilch/ticktree/pkg/profiler"
)

// Handlers serves tool calls against one shared profiler.
type Handlers struct {
	shared *profiler.Shared
}

// NewHandlers creates tool handlers for shared.
func NewHandlers(shared *profiler.Shared) *Handlers {
	return &Handlers{shared: shared}
}

type tool struct {
	def     mcp.Tool
	handler server.ToolHandlerFunc
}

func (h *Handlers) tools() []tool {
	return []tool{
		{
			def: mcp.NewTool("list_regions",
				mcp.WithDescription("List every timed region with its latest and smoothed duration, parent in the call tree and history length."),
			),
			handler: h.ListRegions,
		},
		{
			def: mcp.NewTool("get_history",
				mcp.WithDescription("Return the averaged history points of one region, oldest first. Seq is the tick count at which the point was recorded."),
				mcp.WithString("region",
					mcp.Required(),
					mcp.Description("Region name as passed to the instrumentation"),
				),
			),
			handler: h.GetHistory,
		},
		{
			def: mcp.NewTool("get_tree",
				mcp.WithDescription("Render the last published call tree with smoothed durations and self time per parent."),
			),
			handler: h.GetTree,
		},
		{
			def: mcp.NewTool("get_layout",
				mcp.WithDescription("Return the flame layout of the published call tree: rows by depth, start and width as fractions of the root duration."),
			),
			handler: h.GetLayout,
		},
		{
			def: mcp.NewTool("get_report",
				mcp.WithDescription("Summarise the tick: duration, frame budget score and the hottest regions by self time."),
				mcp.WithNumber("budget_ms",
					mcp.Description("Frame budget in milliseconds (default: 16.67)"),
				),
			),
			handler: h.GetReport,
		},
		{
			def: mcp.NewTool("get_settings",
				mcp.WithDescription("Return the current profiler settings."),
			),
			handler: h.GetSettings,
		},
		{
			def: mcp.NewTool("update_settings",
				mcp.WithDescription("Change profiler settings. Omitted fields keep their value; the change takes effect at the next resolve."),
				mcp.WithBoolean("active",
					mcp.Description("Enable or disable timing. Disabling flushes pending samples once."),
				),
				mcp.WithNumber("stored_data_amount",
					mcp.Description("History points kept per region"),
				),
				mcp.WithNumber("stored_cache_amount",
					mcp.Description("Raw samples kept per region between resolves"),
				),
				mcp.WithString("update_interval",
					mcp.Description("Minimum time between resolves, e.g. 500ms"),
				),
				mcp.WithNumber("smoothing_amount",
					mcp.Description("History points readers average over"),
				),
			),
			handler: h.UpdateSettings,
		},
	}
}

// ToolNames returns the names of every exposed tool.
func (h *Handlers) ToolNames() []string {
	var names []string
	for _, t := range h.tools() {
		names = append(names, t.def.Name)
	}
	return names
}

// New creates an MCP server exposing shared.
func New(shared *profiler.Shared, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ticktree",
		version,
		server.WithToolCapabilities(false),
	)
	h := NewHandlers(shared)
	for _, t := range h.tools() {
		s.AddTool(t.def, t.handler)
	}
	return s
}

// ServeStdio serves shared over stdin and stdout until the client leaves.
func ServeStdio(shared *profiler.Shared, version string) error {
	return server.ServeStdio(New(shared, version))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

type regionRow struct {
	Name       string  `json:"name"`
	Parent     string  `json:"parent,omitempty"`
	LatestMS   float64 `json:"latest_ms"`
	SmoothedMS float64 `json:"smoothed_ms"`
	Points     int     `json:"history_points"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ListRegions handles list_regions.
func (h *Handlers) ListRegions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.shared.Snapshot()
	rows := make([]regionRow, 0, len(snap.Regions))
	for _, r := range snap.Regions {
		row := regionRow{
			Name:       r.Name,
			LatestMS:   millis(r.Latest),
			SmoothedMS: millis(r.Smoothed),
			Points:     len(r.History),
		}
		if n := snap.Tree.Node(r.Name); n != nil {
			row.Parent = n.Parent
		}
		rows = append(rows, row)
	}
	return jsonResult(rows)
}

// GetHistory handles get_history.
func (h *Handlers) GetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	region, err := request.RequireString("region")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap := h.shared.Snapshot()
	r, ok := snap.Region(region)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown region %q. Use list_regions to see tracked regions", region)), nil
	}

	type point struct {
		Seq     uint64  `json:"seq"`
		ValueMS float64 `json:"value_ms"`
	}
	points := make([]point, len(r.History))
	for i, p := range r.History {
		points[i] = point{Seq: p.Seq, ValueMS: millis(p.Value)}
	}
	return jsonResult(points)
}

// GetTree handles get_tree.
func (h *Handlers) GetTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := output.NewFormatter(output.FormatTree, &buf).Render(h.shared.Snapshot()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render tree: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// GetLayout handles get_layout.
func (h *Handlers) GetLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.shared.Snapshot()
	if _, ok := snap.Root(); !ok {
		return mcp.NewToolResultError("No call tree has been published yet"), nil
	}
	return jsonResult(flamegraph.NewLayout(snap.Tree, snap.Duration))
}

// GetReport handles get_report.
func (h *Handlers) GetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	budget := request.GetFloat("budget_ms", 1000.0/60)
	if budget <= 0 {
		return mcp.NewToolResultError("budget_ms must be positive"), nil
	}

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatAI, &buf)
	f.SetBudget(time.Duration(budget * float64(time.Millisecond)))
	if err := f.Render(h.shared.Snapshot()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render report: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// GetSettings handles get_settings.
func (h *Handlers) GetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.shared.Settings())
}

// UpdateSettings handles update_settings. The update is all or nothing.
func (h *Handlers) UpdateSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	has := func(key string) bool {
		_, ok := args[key]
		return ok
	}

	var interval time.Duration
	if has("update_interval") {
		d, err := time.ParseDuration(request.GetString("update_interval", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid update_interval: %v", err)), nil
		}
		interval = d
	}

	var applyErr error
	h.shared.ChangeSettings(func(s *profiler.Settings) {
		next := *s
		if has("active") {
			next.Active = request.GetBool("active", next.Active)
		}
		if has("stored_data_amount") {
			next.StoredDataAmount = request.GetInt("stored_data_amount", next.StoredDataAmount)
		}
		if has("stored_cache_amount") {
			next.StoredCacheAmount = request.GetInt("stored_cache_amount", next.StoredCacheAmount)
		}
		if has("update_interval") {
			next.UpdateInterval = interval
		}
		if has("smoothing_amount") {
			next.SmoothingAmount = request.GetInt("smoothing_amount", next.SmoothingAmount)
		}
		if applyErr = next.Validate(); applyErr != nil {
			return
		}
		*s = next
	})
	if applyErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Settings rejected: %v", applyErr)), nil
	}
	return jsonResult(h.shared.Settings())
}
