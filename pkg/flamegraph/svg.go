package flamegraph

import (
	"fmt"
	"html"
	"io"
)

// SVGOptions configures the flame graph SVG output.
type SVGOptions struct {
	Title       string
	Width       int
	Height      int
	ColorScheme string // "hot", "cold", "mem"
	// Focused regions are drawn with a heavy outline.
	Focused []string
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Title:       "Tick Flame Graph",
		Width:       1200,
		ColorScheme: "hot",
	}
}

// WriteSVG renders a layout as an SVG flame graph, root row at the bottom.
func WriteSVG(svg io.Writer, l Layout, opts SVGOptions) error {
	if opts.Width == 0 {
		opts.Width = 1200
	}
	if l.Depth() == 0 {
		return fmt.Errorf("no regions in layout")
	}

	// Calculate dimensions
	frameHeight := 16
	fontSize := 12
	chartHeight := (l.Depth() + 1) * frameHeight
	headerHeight := 40
	totalHeight := chartHeight + headerHeight + 20

	if opts.Height == 0 {
		opts.Height = totalHeight
	}

	// Write SVG header
	fmt.Fprintf(svg, `<?xml version="1.0" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg1.1.dtd">
<svg version="1.1" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<style>
  .func:hover { stroke:black; stroke-width:0.5; cursor:pointer; }
  .focused rect { stroke:black; stroke-width:2; }
  text { font-family: monospace; font-size: %dpx; }
</style>
<rect x="0" y="0" width="%d" height="%d" fill="white"/>
<text x="%d" y="20" text-anchor="middle" style="font-size:16px; font-weight:bold;">%s</text>
<text x="%d" y="35" text-anchor="middle" style="font-size:12px; fill:#666;">(tick %v)</text>
`,
		opts.Width, opts.Height, fontSize,
		opts.Width, opts.Height,
		opts.Width/2, html.EscapeString(opts.Title),
		opts.Width/2, l.Total)

	focused := make(map[string]bool, len(opts.Focused))
	for _, f := range opts.Focused {
		focused[f] = true
	}

	margin := 10
	chartWidth := opts.Width - 2*margin
	baseY := opts.Height - 20
	for _, s := range l.Segments() {
		renderSegment(svg, s, margin, baseY, chartWidth, frameHeight, opts.ColorScheme, focused[s.Name])
	}

	_, err := fmt.Fprintln(svg, "</svg>")
	return err
}

func renderSegment(w io.Writer, s Segment, margin, baseY, chartWidth, frameHeight int, scheme string, focused bool) {
	x := margin + int(s.Start*float64(chartWidth))
	width := int(s.Width * float64(chartWidth))
	if width < 1 {
		width = 1
	}
	y := baseY - (s.Depth * frameHeight)

	r, g, b := frameColor(s.Depth, scheme)

	class := "func"
	if focused {
		class = "func focused"
	}
	fmt.Fprintf(w, `<g class="%s">
<rect x="%d" y="%d" width="%d" height="%d" fill="rgb(%d,%d,%d)" rx="1"/>
`, class, x, y-frameHeight, width, frameHeight-1, r, g, b)

	// Add text if segment is wide enough
	if width > 40 {
		label := s.Name
		maxChars := (width - 4) / 7 // approximate char width
		if len(label) > maxChars {
			if maxChars > 3 {
				label = label[:maxChars-2] + ".."
			} else {
				label = ""
			}
		}
		if label != "" {
			fmt.Fprintf(w, `<text x="%d" y="%d" fill="black">%s</text>
`, x+2, y-4, html.EscapeString(label))
		}
	}

	fmt.Fprintf(w, `<title>%s (%v, %.1f%%)</title>
</g>
`, html.EscapeString(s.Name), s.Duration, s.Width*100)
}

func frameColor(depth int, scheme string) (int, int, int) {
	// Deterministic color based on depth
	switch scheme {
	case "cold":
		g := 50 + (depth*30)%150
		b := 150 + (depth*20)%100
		return 30, g, b
	case "mem":
		g := 190 + (depth*15)%60
		return 30, g, 30
	default: // "hot"
		r := 200 + (depth*15)%55
		g := 50 + (depth*40)%150
		return r, g, 30
	}
}
