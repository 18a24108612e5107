package pack

import (
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/boardpack/pkg/errors"
)

// Scale is the number of solver units per board unit. Two decimal digits of
// every size and offset survive the conversion.
const Scale = 100.0

// Default objective weights and deadline.
const (
	DefaultSizeWeight = 2.0
	DefaultWireWeight = 4.0
	DefaultTimeLimit  = 8 * time.Second
)

// Rect is the footprint of one component.
type Rect struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// Center returns the centre of the rectangle relative to its bottom-left corner.
func (r Rect) Center() Point { return Point{X: r.W / 2, Y: r.H / 2} }

// Point is a position or an offset in board units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Wire connects SrcAt on rectangle Src with DstAt on rectangle Dst. The
// attachment points are offsets from each rectangle's bottom-left corner.
type Wire struct {
	Src   int   `json:"src"`
	Dst   int   `json:"dst"`
	SrcAt Point `json:"src_at"`
	DstAt Point `json:"dst_at"`
}

// SelfLoop reports whether both ends sit on the same rectangle.
func (w Wire) SelfLoop() bool { return w.Src == w.Dst }

// Problem is the input of [Pack].
type Problem struct {
	Rects []Rect `json:"rects"`
	Wires []Wire `json:"wires,omitempty"`
	// Edge[i] requires rectangle i to touch the used bounding box.
	Edge []bool `json:"edge"`
}

// Validate reports malformed input as an INVALID_MODEL error.
func (p Problem) Validate() error {
	if len(p.Edge) != len(p.Rects) {
		return errors.New(errors.ErrCodeInvalidModel,
			"got %d rects but %d edge constraints", len(p.Rects), len(p.Edge))
	}
	for i, r := range p.Rects {
		if !finite(r.W) || !finite(r.H) || r.W <= 0 || r.H <= 0 {
			return errors.New(errors.ErrCodeInvalidModel,
				"rect %d has invalid size %gx%g", i, r.W, r.H)
		}
	}
	for k, w := range p.Wires {
		if w.Src < 0 || w.Src >= len(p.Rects) || w.Dst < 0 || w.Dst >= len(p.Rects) {
			return errors.New(errors.ErrCodeInvalidModel,
				"wire %d references rect %d->%d, have %d rects", k, w.Src, w.Dst, len(p.Rects))
		}
		if !finite(w.SrcAt.X) || !finite(w.SrcAt.Y) || !finite(w.DstAt.X) || !finite(w.DstAt.Y) {
			return errors.New(errors.ErrCodeInvalidModel, "wire %d has a non-finite attachment point", k)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Weights trades bounding-box perimeter against wire length.
type Weights struct {
	Size float64 `json:"size_weight" toml:"size_weight"`
	Wire float64 `json:"wire_weight" toml:"wire_weight"`
}

// DefaultWeights returns the reference weighting (size 2, wire 4).
func DefaultWeights() Weights {
	return Weights{Size: DefaultSizeWeight, Wire: DefaultWireWeight}
}

// IsZero reports whether no weight was set.
func (w Weights) IsZero() bool { return w.Size == 0 && w.Wire == 0 }

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	if !finite(w.Size) || !finite(w.Wire) || w.Size < 0 || w.Wire < 0 {
		return errors.New(errors.ErrCodeInvalidModel, "weights must be finite and non-negative, got size=%g wire=%g", w.Size, w.Wire)
	}
	return nil
}

// Status tells a proven optimum from a deadline-limited result.
type Status int

const (
	// StatusOptimal means the search tree was exhausted.
	StatusOptimal Status = iota
	// StatusFeasible means the search stopped early; the placement is valid
	// but not proven optimal.
	StatusFeasible
)

// String returns "optimal" or "feasible".
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Solution is the output of [Pack].
type Solution struct {
	// Positions holds the bottom-left corner of every input rectangle.
	Positions []Point `json:"positions"`
	// Width and Height are the true extents max(x+w) and max(y+h).
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// WireLength is the total Manhattan length of all wires.
	WireLength float64 `json:"wire_length"`
	// Objective is SizeWeight·(Width+Height) + WireWeight·WireLength.
	Objective float64       `json:"objective"`
	Status    Status        `json:"status"`
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	// TimeLimited is set when the time limit or a context deadline, rather
	// than the node budget, cut the search short. Such results depend on
	// machine speed.
	TimeLimited bool `json:"time_limited,omitempty"`
}

// Degraded reports whether the search stopped before proving optimality.
func (s *Solution) Degraded() bool { return s.Status != StatusOptimal }

// Size returns the used bounding box as a rectangle.
func (s *Solution) Size() Rect { return Rect{W: s.Width, H: s.Height} }

// =============================================================================
// Scaled model
// =============================================================================

// model is the integer form of a Problem, split by axis.
type model struct {
	n     int
	axes  [2]axis
	edge  []bool
	wt    Weights
	wires int
}

// axis holds everything one coordinate needs: sizes, the coordinate bound and
// the wire offsets projected onto it.
type axis struct {
	size  []int64
	limit int64
	wires []axisWire
}

// axisWire contributes |pos[a] - pos[b] + off| to the axis cost.
type axisWire struct {
	a, b int
	off  int64
}

func scaleSize(v float64) int64 {
	return int64(math.Ceil(v*Scale - 1e-9))
}

func scaleOffset(v float64) int64 {
	return int64(math.Round(v * Scale))
}

func newModel(p Problem, wt Weights) *model {
	n := len(p.Rects)
	m := &model{n: n, edge: p.Edge, wt: wt}
	for k := range m.axes {
		m.axes[k].size = make([]int64, n)
	}

	var sumW, sumH int64
	for i, r := range p.Rects {
		m.axes[0].size[i] = max(1, scaleSize(r.W))
		m.axes[1].size[i] = max(1, scaleSize(r.H))
		sumW += m.axes[0].size[i]
		sumH += m.axes[1].size[i]
	}
	m.axes[0].limit = max(1, sumW)
	m.axes[1].limit = max(1, sumH)

	for _, w := range p.Wires {
		if w.SelfLoop() {
			continue
		}
		m.wires++
		m.axes[0].wires = append(m.axes[0].wires, axisWire{
			a: w.Src, b: w.Dst, off: scaleOffset(w.SrcAt.X) - scaleOffset(w.DstAt.X),
		})
		m.axes[1].wires = append(m.axes[1].wires, axisWire{
			a: w.Src, b: w.Dst, off: scaleOffset(w.SrcAt.Y) - scaleOffset(w.DstAt.Y),
		})
	}
	return m
}

// cost is the axis share of the scaled objective for the given positions.
func (ax *axis) cost(pos []int64, wt Weights) float64 {
	return wt.Size*float64(ax.extent(pos)) + wt.Wire*float64(ax.wireLength(pos))
}

func (ax *axis) extent(pos []int64) int64 {
	var e int64
	for i, s := range ax.size {
		e = max(e, pos[i]+s)
	}
	return e
}

func (ax *axis) wireLength(pos []int64) int64 {
	var sum int64
	for _, w := range ax.wires {
		d := pos[w.a] - pos[w.b] + w.off
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// objective evaluates a complete placement in scaled units.
func (m *model) objective(x, y []int64) float64 {
	return m.axes[0].cost(x, m.wt) + m.axes[1].cost(y, m.wt)
}

// overlapArea returns the shared area of rectangles i and j, zero when their
// interiors are disjoint.
func (m *model) overlapArea(x, y []int64, i, j int) int64 {
	w, h := m.axes[0].size, m.axes[1].size
	ox := min(x[i]+w[i], x[j]+w[j]) - max(x[i], x[j])
	if ox <= 0 {
		return 0
	}
	oy := min(y[i]+h[i], y[j]+h[j]) - max(y[i], y[j])
	if oy <= 0 {
		return 0
	}
	return ox * oy
}

// touches reports whether rectangle i lies on the used bounding box.
func (m *model) touches(x, y []int64, i int, width, height int64) bool {
	return x[i] == 0 || y[i] == 0 ||
		x[i]+m.axes[0].size[i] == width ||
		y[i]+m.axes[1].size[i] == height
}

// feasible reports whether a placement satisfies every hard constraint.
func (m *model) feasible(x, y []int64) bool {
	for i := 0; i < m.n; i++ {
		if x[i] < 0 || y[i] < 0 {
			return false
		}
		for j := i + 1; j < m.n; j++ {
			if m.overlapArea(x, y, i, j) > 0 {
				return false
			}
		}
	}
	width, height := m.axes[0].extent(x), m.axes[1].extent(y)
	if width > m.axes[0].limit || height > m.axes[1].limit {
		return false
	}
	for i, req := range m.edge {
		if req && !m.touches(x, y, i, width, height) {
			return false
		}
	}
	return true
}

// solution converts scaled positions back into board units.
func (m *model) solution(p Problem, x, y []int64) *Solution {
	pos := make([]Point, m.n)
	for i := range pos {
		pos[i] = Point{X: float64(x[i]) / Scale, Y: float64(y[i]) / Scale}
	}
	m.alignHighEdges(p, x, y, pos)
	mt := Evaluate(p, pos, m.wt)
	return &Solution{
		Positions:  pos,
		Width:      mt.Width,
		Height:     mt.Height,
		WireLength: mt.WireLength,
		Objective:  mt.Objective,
	}
}

// alignHighEdges moves edge rectangles that sit on the right or top of the
// scaled box onto the true box. Sizes are rounded up when scaled, so such a
// rectangle can end up to one solver unit short of the reported extent. The
// move stays inside the rectangle's own scaled slot.
func (m *model) alignHighEdges(p Problem, x, y []int64, pos []Point) {
	width, height := Bounds(p.Rects, pos)
	sw, sh := m.axes[0].extent(x), m.axes[1].extent(y)
	for i, req := range m.edge {
		r := p.Rects[i]
		if !req || TouchesEdge(r, pos[i], width, height) {
			continue
		}
		switch {
		case x[i]+m.axes[0].size[i] == sw:
			pos[i].X = width - r.W
		case y[i]+m.axes[1].size[i] == sh:
			pos[i].Y = height - r.H
		}
	}
}
