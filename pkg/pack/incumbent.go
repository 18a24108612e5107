package pack

import (
	"cmp"
	"math"
	"slices"
)

// placement is a complete candidate in scaled units.
type placement struct {
	x, y []int64
	obj  float64
}

var stripFactors = []float64{1, 1.25, 1.5, 2}

const compactRounds = 3

// seeds returns every heuristic placement that satisfies the model, best
// first. A single row always qualifies: everything touches the bottom.
func (s *search) seeds() []placement {
	m := s.m
	var out []placement
	add := func(x, y []int64) {
		if !m.feasible(x, y) {
			return
		}
		out = append(out, placement{x: x, y: y, obj: m.objective(x, y)})
	}

	add(m.line(0))
	add(m.line(1))
	for _, rule := range []fitRule{fitBestArea, fitBottomLeft} {
		for _, width := range m.stripWidths() {
			if x, y, ok := m.strip(width, rule); ok {
				add(x, y)
			}
		}
	}

	for i := range out {
		out[i] = s.compact(out[i])
	}
	slices.SortStableFunc(out, func(a, b placement) int { return cmp.Compare(a.obj, b.obj) })
	return out
}

// line lays every rectangle side by side along axis k, in input order.
func (m *model) line(k int) (x, y []int64) {
	pos := [2][]int64{make([]int64, m.n), make([]int64, m.n)}
	var at int64
	for i := 0; i < m.n; i++ {
		pos[k][i] = at
		at += m.axes[k].size[i]
	}
	return pos[0], pos[1]
}

func (m *model) stripWidths() []int64 {
	var area float64
	var widest int64
	for i := 0; i < m.n; i++ {
		area += float64(m.axes[0].size[i]) * float64(m.axes[1].size[i])
		widest = max(widest, m.axes[0].size[i])
	}
	base := math.Sqrt(area)
	var widths []int64
	for _, f := range stripFactors {
		w := min(m.axes[0].limit, max(widest, int64(math.Ceil(base*f))))
		if !slices.Contains(widths, w) {
			widths = append(widths, w)
		}
	}
	return widths
}

// strip packs the rectangles, largest first, into a strip of the given width
// that is tall enough to never run out of room.
func (m *model) strip(width int64, rule fitRule) (x, y []int64, ok bool) {
	order := make([]int, m.n)
	for i := range order {
		order[i] = i
	}
	w, h := m.axes[0].size, m.axes[1].size
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(w[b]*h[b], w[a]*h[a]) })

	packer := newMaxRects(width, m.axes[1].limit, rule)
	x, y = make([]int64, m.n), make([]int64, m.n)
	for _, i := range order {
		px, py, ok := packer.insert(w[i], h[i])
		if !ok {
			return nil, nil, false
		}
		x[i], y[i] = px, py
	}
	return x, y, true
}

// compact keeps the relative order of a feasible placement and lets the LP
// slide everything to its best position under that order.
func (s *search) compact(pl placement) placement {
	for round := 0; round < compactRounds; round++ {
		c := s.m.relations(pl.x, pl.y)
		xs, okx := s.solveAxis(0, c[0])
		ys, oky := s.solveAxis(1, c[1])
		if !okx || !oky || !s.m.feasible(xs.pos, ys.pos) {
			return pl
		}
		obj := s.m.objective(xs.pos, ys.pos)
		if obj >= pl.obj-objectiveEps(pl.obj) {
			return pl
		}
		pl = placement{x: xs.pos, y: ys.pos, obj: obj}
	}
	return pl
}

// relations reads the cuts a feasible placement already satisfies: one
// separation per pair and one side per edge-constrained rectangle.
func (m *model) relations(x, y []int64) [2]cuts {
	var c [2]cuts
	w, h := m.axes[0].size, m.axes[1].size
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			switch {
			case x[i]+w[i] <= x[j]:
				c[0].seps = append(c[0].seps, sep{lo: i, hi: j})
			case x[j]+w[j] <= x[i]:
				c[0].seps = append(c[0].seps, sep{lo: j, hi: i})
			case y[i]+h[i] <= y[j]:
				c[1].seps = append(c[1].seps, sep{lo: i, hi: j})
			default:
				c[1].seps = append(c[1].seps, sep{lo: j, hi: i})
			}
		}
	}
	width := m.axes[0].extent(x)
	for i, req := range m.edge {
		if !req {
			continue
		}
		switch {
		case x[i] == 0:
			c[0].pins = append(c[0].pins, pin{i: i, side: sideLow})
		case y[i] == 0:
			c[1].pins = append(c[1].pins, pin{i: i, side: sideLow})
		case x[i]+w[i] == width:
			c[0].pins = append(c[0].pins, pin{i: i, side: sideHigh})
		default:
			c[1].pins = append(c[1].pins, pin{i: i, side: sideHigh})
		}
	}
	return c
}

func objectiveEps(v float64) float64 {
	return 1e-7 * max(1, math.Abs(v))
}
