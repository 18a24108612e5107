package pack

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const lpTolerance = 1e-9

// side selects which face of the bounding box a pinned rectangle touches on
// one axis.
type side uint8

const (
	sideLow  side = iota // pos = 0
	sideHigh             // pos + size = extent
)

// sep orders two rectangles on one axis: lo ends before hi starts.
type sep struct{ lo, hi int }

// pin forces rectangle i onto one face of the box.
type pin struct {
	i    int
	side side
}

// cuts are the branching decisions that apply to one axis.
type cuts struct {
	seps []sep
	pins []pin
}

func (c cuts) withSep(s sep) cuts {
	out := cuts{seps: make([]sep, len(c.seps), len(c.seps)+1), pins: c.pins}
	copy(out.seps, c.seps)
	out.seps = append(out.seps, s)
	return out
}

func (c cuts) withPin(p pin) cuts {
	out := cuts{seps: c.seps, pins: make([]pin, len(c.pins), len(c.pins)+1)}
	copy(out.pins, c.pins)
	out.pins = append(out.pins, p)
	return out
}

// lpResult is the optimum of one axis relaxation.
type lpResult struct {
	pos    []float64
	extent float64
	obj    float64
}

// solveAxisLP minimises Size·E + Wire·Σd over one axis in standard form:
//
//	variables  pos[0..n), E, d[0..m), one slack per row, all >= 0
//	pos_i + size_i <= E          for every rectangle
//	E <= limit
//	pos_lo + size_lo <= pos_hi   for every separation cut
//	±(pos_a - pos_b + off) <= d  for every wire
//	pos_i <= 0                   for low pins
//	E - pos_i <= size_i          for high pins
func solveAxisLP(ax *axis, c cuts, wt Weights) (res lpResult, err error) {
	n, m := len(ax.size), len(ax.wires)
	ext := n
	nv := n + 1 + m
	rows := n + 1 + len(c.seps) + 2*m + len(c.pins)
	cols := nv + rows

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	obj := make([]float64, cols)
	obj[ext] = wt.Size
	for k := 0; k < m; k++ {
		obj[ext+1+k] = wt.Wire
	}

	r := 0
	for i, s := range ax.size {
		A.Set(r, i, 1)
		A.Set(r, ext, -1)
		b[r] = -float64(s)
		r++
	}
	A.Set(r, ext, 1)
	b[r] = float64(ax.limit)
	r++
	for _, s := range c.seps {
		A.Set(r, s.lo, 1)
		A.Set(r, s.hi, -1)
		b[r] = -float64(ax.size[s.lo])
		r++
	}
	for k, w := range ax.wires {
		d := ext + 1 + k
		A.Set(r, w.a, 1)
		A.Set(r, w.b, -1)
		A.Set(r, d, -1)
		b[r] = -float64(w.off)
		r++
		A.Set(r, w.a, -1)
		A.Set(r, w.b, 1)
		A.Set(r, d, -1)
		b[r] = float64(w.off)
		r++
	}
	for _, p := range c.pins {
		switch p.side {
		case sideLow:
			A.Set(r, p.i, 1)
		case sideHigh:
			A.Set(r, p.i, -1)
			A.Set(r, ext, 1)
			b[r] = float64(ax.size[p.i])
		}
		r++
	}
	for i := 0; i < rows; i++ {
		A.Set(i, nv+i, 1)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("simplex: %v", p)
		}
	}()
	optF, optX, err := lp.Simplex(obj, A, b, lpTolerance, nil)
	if err != nil {
		return lpResult{}, err
	}
	if math.IsNaN(optF) {
		return lpResult{}, fmt.Errorf("simplex: no objective")
	}
	return lpResult{pos: optX[:n], extent: optX[ext], obj: optF}, nil
}
