package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/pack"
)

const svgStyle = `
    .outline { fill: #f4f1e8; stroke: #555; stroke-width: 1; }
    .cluster { fill: none; stroke: #333; stroke-width: 1; stroke-dasharray: 4 3; }
    .component { stroke: #1e1e1e; stroke-width: 0.8; fill-opacity: 0.85; }
    .wire { stroke: #c0392b; stroke-width: 0.8; stroke-opacity: 0.7; }
    .label { font-family: Helvetica, Arial, sans-serif; fill: #111; text-anchor: middle; dominant-baseline: middle; }
    .cluster-label { font-family: Helvetica, Arial, sans-serif; fill: #333; font-style: italic; }`

// svgFrame maps board coordinates into the picture. The board sits inside a
// one-unit margin and y grows downwards.
type svgFrame struct {
	scale, margin, height float64
}

func (f svgFrame) x(v float64) float64 { return (v + f.margin) * f.scale }

// y converts the top edge of a box whose bottom is at v and height is h.
func (f svgFrame) y(v, h float64) float64 { return (f.height - v - h + f.margin) * f.scale }

func (f svgFrame) d(v float64) float64 { return v * f.scale }

// SVG draws the layout.
func SVG(l *board.Layout, opts Options) []byte {
	f := svgFrame{scale: opts.scale(), margin: 1, height: l.Height}
	w := f.d(l.Width + 2*f.margin)
	h := f.d(l.Height + 2*f.margin)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgStyle)
	if l.Board != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(l.Board))
	}
	fmt.Fprintf(&buf, `  <rect class="outline" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
		f.x(0), f.y(0, l.Height), f.d(l.Width), f.d(l.Height))

	for _, c := range l.Components {
		if c.Placed {
			writeComponent(&buf, f, c)
		}
	}
	if !opts.HideClusters {
		for i, cb := range l.Clusters {
			writeCluster(&buf, f, i, cb)
		}
	}
	if !opts.HideWires {
		for _, s := range l.Wires {
			fmt.Fprintf(&buf, `  <line class="wire" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"><title>%s</title></line>`+"\n",
				f.x(s.A.X), f.y(s.A.Y, 0), f.x(s.B.X), f.y(s.B.Y, 0),
				html.EscapeString(s.From+" - "+s.To))
		}
	}
	for _, c := range l.Components {
		if c.Placed {
			writeLabel(&buf, f, c)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeComponent(buf *bytes.Buffer, f svgFrame, c board.Placement) {
	fmt.Fprintf(buf, `  <rect id="c-%s" class="component" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`+"\n",
		html.EscapeString(c.Ref), f.x(c.X), f.y(c.Y, c.H), f.d(c.W), f.d(c.H),
		clusterColor(c.Cluster).hex(), html.EscapeString(tooltip(c)))
}

func writeCluster(buf *bytes.Buffer, f svgFrame, i int, cb board.ClusterBox) {
	fmt.Fprintf(buf, `  <rect id="cluster-%d" class="cluster" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
		i, f.x(cb.X), f.y(cb.Y, cb.H), f.d(cb.W), f.d(cb.H))
	fmt.Fprintf(buf, `  <text class="cluster-label" x="%.2f" y="%.2f" font-size="%.1f">%s</text>`+"\n",
		f.x(cb.X)+2, f.y(cb.Y, cb.H)-3, f.scale*0.5, html.EscapeString(cb.Seed))
}

func writeLabel(buf *bytes.Buffer, f svgFrame, c board.Placement) {
	size := min(f.d(c.H)*0.45, f.d(c.W)/float64(max(len(c.Ref), 1))*1.6)
	if size < 4 {
		return
	}
	center := c.Origin().Add(pack.Point{X: c.W / 2, Y: c.H / 2})
	fmt.Fprintf(buf, `  <text class="label" x="%.2f" y="%.2f" font-size="%.1f">%s</text>`+"\n",
		f.x(center.X), f.y(center.Y, 0), size, html.EscapeString(c.Ref))
}

func tooltip(c board.Placement) string {
	s := fmt.Sprintf("%s %.2fx%.2f at (%.2f, %.2f)", c.Ref, c.W, c.H, c.X, c.Y)
	if c.Footprint != "" {
		s = c.Footprint + " " + s
	}
	return s
}
