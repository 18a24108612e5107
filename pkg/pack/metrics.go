package pack

import "math"

// Tolerance absorbs float noise when placements are checked in board units.
const Tolerance = 1e-6

// Metrics describes a placement in board units.
type Metrics struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	WireLength float64 `json:"wire_length"`
	Objective  float64 `json:"objective"`
	// Utilization is the share of the bounding box covered by rectangles.
	Utilization float64 `json:"utilization"`
}

// Evaluate measures pos against p with the given weights. Self-loop wires
// contribute nothing.
func Evaluate(p Problem, pos []Point, wt Weights) Metrics {
	var mt Metrics
	mt.Width, mt.Height = Bounds(p.Rects, pos)
	for _, w := range p.Wires {
		if w.SelfLoop() {
			continue
		}
		a := pos[w.Src].Add(w.SrcAt)
		b := pos[w.Dst].Add(w.DstAt)
		mt.WireLength += math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
	}
	mt.Objective = wt.Size*(mt.Width+mt.Height) + wt.Wire*mt.WireLength
	if box := mt.Width * mt.Height; box > 0 {
		var used float64
		for _, r := range p.Rects {
			used += r.Area()
		}
		mt.Utilization = used / box
	}
	return mt
}

// Bounds returns max(x+w) and max(y+h) over all rectangles.
func Bounds(rects []Rect, pos []Point) (width, height float64) {
	for i, r := range rects {
		width = max(width, pos[i].X+r.W)
		height = max(height, pos[i].Y+r.H)
	}
	return width, height
}

// Overlaps lists every pair of rectangles whose interiors intersect.
func Overlaps(rects []Rect, pos []Point) [][2]int {
	var out [][2]int
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			ox := math.Min(pos[i].X+rects[i].W, pos[j].X+rects[j].W) - math.Max(pos[i].X, pos[j].X)
			oy := math.Min(pos[i].Y+rects[i].H, pos[j].Y+rects[j].H) - math.Max(pos[i].Y, pos[j].Y)
			if ox > Tolerance && oy > Tolerance {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// TouchesEdge reports whether r placed at p lies on the border of a
// width×height box anchored at the origin.
func TouchesEdge(r Rect, p Point, width, height float64) bool {
	return math.Abs(p.X) <= Tolerance ||
		math.Abs(p.Y) <= Tolerance ||
		math.Abs(p.X+r.W-width) <= Tolerance ||
		math.Abs(p.Y+r.H-height) <= Tolerance
}
