package debug

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/ticktree/pkg/profiler"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// DumpHistory outputs every region's raw history points, oldest first,
// before any smoothing is applied.
func DumpHistory(w io.Writer, snap profiler.Snapshot) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Raw History Dump"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 70)))
	fmt.Fprintf(w, "  %s %s %s %s\n",
		debugHeader.Render("REGION                  "),
		debugHeader.Render("PARENT        "),
		debugHeader.Render("SEQ       "),
		debugHeader.Render("VALUE        "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 70)))

	for _, r := range snap.Regions {
		parent := "-"
		if n := snap.Tree.Node(r.Name); n != nil && n.Parent != "" {
			parent = n.Parent
		}
		if len(r.History) == 0 {
			fmt.Fprintf(w, "  %-25s %-15s %-10s %s\n", r.Name, parent, "-", debugDim.Render("no data"))
			continue
		}
		for _, p := range r.History {
			fmt.Fprintf(w, "  %-25s %-15s %-10d %.4fms\n",
				r.Name, parent, p.Seq, float64(p.Value)/float64(time.Millisecond))
		}
	}

	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 70)))
	fmt.Fprintf(w, "  ticks=%d marker=%q reference=%q\n",
		snap.TotalTicks, snap.OuterMarker, snap.ConstantReference)
}
