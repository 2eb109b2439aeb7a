// Package output provides formatters for displaying profiler snapshots.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/danpilch/ticktree/pkg/flamegraph"
	"github.com/danpilch/ticktree/pkg/profiler"
	"github.com/danpilch/ticktree/pkg/tree"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatTree  Format = "tree"
	FormatJSON  Format = "json"
	FormatAI    Format = "ai"
	FormatTSV   Format = "tsv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatTree, FormatJSON, FormatAI, FormatTSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Formatter handles output formatting.
type Formatter struct {
	format    Format
	writer    io.Writer
	budget    time.Duration
	showScore bool
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
		budget: time.Second / 60,
	}
}

// SetBudget sets the per-tick time budget used for scoring.
func (f *Formatter) SetBudget(d time.Duration) {
	f.budget = d
}

// SetShowScore enables budget score display.
func (f *Formatter) SetShowScore(show bool) {
	f.showScore = show
}

// Render outputs the snapshot in the configured format.
func (f *Formatter) Render(snap profiler.Snapshot) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(snap)
	case FormatAI:
		return f.renderAI(snap)
	case FormatTSV:
		return f.renderTSV(snap)
	case FormatTree:
		return f.renderTree(snap)
	default:
		return f.renderTable(snap)
	}
}

func showTime(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}

func share(d, tick time.Duration) string {
	if tick <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(d)/float64(tick)*100)
}

// renderJSON outputs the snapshot, its tree and its layout as JSON.
func (f *Formatter) renderJSON(snap profiler.Snapshot) error {
	output := struct {
		profiler.Snapshot
		Tree     map[string]tree.Node `json:"tree"`
		Layout   flamegraph.Layout    `json:"layout"`
		Hotspots []Hotspot            `json:"hotspots"`
	}{
		Snapshot: snap,
		Tree:     snap.Tree.Nodes(),
		Layout:   flamegraph.NewLayout(snap.Tree, snap.Duration),
		Hotspots: Hotspots(snap, 0),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	focusStyle  = lipgloss.NewStyle().Underline(true)
	hoverStyle  = lipgloss.NewStyle().Bold(true)
	scoreStyles = map[string]lipgloss.Style{
		"ok":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
		"warn": lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
		"bad":  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
	}
)

// regionLabel applies selection styling to a region name.
func regionLabel(name string, sel profiler.Selection) string {
	label := name
	if sel.IsFocused(name) {
		label = focusStyle.Render(label)
	}
	if sel.Hovered == name {
		label = hoverStyle.Render(label)
	}
	return label
}

// renderTable outputs regions as a styled table.
func (f *Formatter) renderTable(snap profiler.Snapshot) error {
	fmt.Fprintln(f.writer, titleStyle.Render("Tick Profile"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	tick := snap.TickDuration()
	rows := make([][]string, len(snap.Regions))
	for i, r := range snap.Regions {
		rows[i] = []string{
			regionLabel(r.Name, snap.Selection),
			showTime(r.Latest),
			showTime(r.Smoothed),
			share(r.Smoothed, tick),
			HistorySparkline(r.History),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("REGION", "LATEST", "SMOOTHED", "SHARE", "TREND").
		Rows(rows...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)
	f.renderSummary(snap)
	return nil
}

// renderSummary outputs the tick summary line and optional score.
func (f *Formatter) renderSummary(snap profiler.Snapshot) {
	root, ok := snap.Root()
	if !ok {
		fmt.Fprintln(f.writer, dimStyle.Render("No call tree published yet"))
		return
	}
	tick := snap.TickDuration()
	fmt.Fprintf(f.writer, "Overall: %s => %s (%.2f fps)\n", root, showTime(tick), FPS(tick))

	if f.showScore {
		score := BudgetScore(tick, f.budget)
		style := scoreStyles["ok"]
		if score < 80 {
			style = scoreStyles["warn"]
		}
		if score < 50 {
			style = scoreStyles["bad"]
		}
		fmt.Fprintf(f.writer, "Budget Score: %s\n",
			style.Render(fmt.Sprintf("%d/100 (%s, budget %s)", score, ScoreLabel(score), showTime(f.budget))))
	}
}

// renderTree outputs the published call tree with self time per parent.
func (f *Formatter) renderTree(snap profiler.Snapshot) error {
	fmt.Fprintln(f.writer, titleStyle.Render("Call Tree"))
	if _, ok := snap.Root(); !ok {
		fmt.Fprintln(f.writer, "No root node detected")
		return nil
	}

	var b strings.Builder
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		indent := strings.Repeat("  ", depth)
		d := snap.Duration(name)
		fmt.Fprintf(&b, "%s%s => %s\n", indent, regionLabel(name, snap.Selection), showTime(d))

		children := snap.Tree.Children(name)
		if len(children) == 0 {
			return
		}
		var childTotal time.Duration
		for _, c := range children {
			if c == name {
				continue
			}
			visit(c, depth+1)
			childTotal += snap.Duration(c)
		}
		fmt.Fprintf(&b, "%s  %s\n", indent, dimStyle.Render(".. => "+showTime(d-childTotal)))
	}
	root, _ := snap.Root()
	visit(root, 0)

	fmt.Fprint(f.writer, b.String())
	fmt.Fprintln(f.writer)
	f.renderSummary(snap)
	return nil
}

// renderAI outputs the snapshot in an LLM-friendly format.
func (f *Formatter) renderAI(snap profiler.Snapshot) error {
	root, ok := snap.Root()
	if !ok {
		fmt.Fprintln(f.writer, "# Tick Profile: no call tree yet")
		fmt.Fprintln(f.writer, "\nThe profiler has not completed a tree build. Run more ticks.")
		return nil
	}

	tick := snap.TickDuration()
	score := BudgetScore(tick, f.budget)
	fmt.Fprintf(f.writer, "# Tick Profile: %s\n\n", ScoreLabel(score))
	fmt.Fprintf(f.writer, "**Tick:** `%s` takes %s (%.1f fps), budget %s, score %d/100\n\n",
		root, showTime(tick), FPS(tick), showTime(f.budget), score)

	spots := Hotspots(snap, 5)
	if len(spots) > 0 {
		fmt.Fprintln(f.writer, "## Hotspots (self time)")
		fmt.Fprintln(f.writer)
		for i, h := range spots {
			fmt.Fprintf(f.writer, "%d. `%s` self %s of total %s (%.1f%% of tick)\n",
				i+1, h.Name, showTime(h.Self), showTime(h.Total), h.Share*100)
		}
		fmt.Fprintln(f.writer)
	}

	fmt.Fprintln(f.writer, "## All Regions")
	fmt.Fprintln(f.writer)
	fmt.Fprintln(f.writer, "| Region | Latest | Smoothed | Share | History points |")
	fmt.Fprintln(f.writer, "|--------|--------|----------|-------|----------------|")
	for _, r := range snap.Regions {
		fmt.Fprintf(f.writer, "| %s | %s | %s | %s | %d |\n",
			r.Name, showTime(r.Latest), showTime(r.Smoothed), share(r.Smoothed, tick), len(r.History))
	}
	fmt.Fprintln(f.writer)

	fmt.Fprintln(f.writer, "## Interpretation Guide")
	fmt.Fprintln(f.writer)
	fmt.Fprintln(f.writer, "- **Latest**: most recent average over one resolve window")
	fmt.Fprintf(f.writer, "- **Smoothed**: mean of the last %d history points\n", snap.Settings.SmoothingAmount)
	fmt.Fprintln(f.writer, "- **Self time**: region time not spent in child regions")
	return nil
}

// renderTSV outputs regions as tab-separated values.
func (f *Formatter) renderTSV(snap profiler.Snapshot) error {
	tick := snap.TickDuration()
	fmt.Fprintln(f.writer, "REGION\tPARENT\tLATEST_MS\tSMOOTHED_MS\tSHARE\tHISTORY")

	for _, r := range snap.Regions {
		parent := ""
		if n := snap.Tree.Node(r.Name); n != nil {
			parent = n.Parent
		}
		shareVal := 0.0
		if tick > 0 {
			shareVal = float64(r.Smoothed) / float64(tick)
		}
		fmt.Fprintf(f.writer, "%s\t%s\t%.4f\t%.4f\t%.4f\t%d\n",
			r.Name, parent,
			float64(r.Latest)/float64(time.Millisecond),
			float64(r.Smoothed)/float64(time.Millisecond),
			shareVal, len(r.History))
	}

	return nil
}
