package pack

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

const progressEvery = 64

// axisSol is a solved axis relaxation: integer positions that satisfy the
// axis cuts and a lower bound on the axis cost of every completion.
type axisSol struct {
	pos    []int64
	extent int64
	bound  float64
}

// node is one subproblem. A nil entry in sol marks an axis whose cuts
// changed since the parent and still needs solving.
type node struct {
	cuts  [2]cuts
	sol   [2]*axisSol
	pairs bitset
	edges bitset
}

func (nd *node) bound() float64 { return nd.sol[0].bound + nd.sol[1].bound }

type search struct {
	m        *model
	opts     Options
	deadline time.Time
	logger   *log.Logger

	best     placement
	haveBest bool

	explored  int
	pruned    int
	lpSolves  int
	fallbacks int

	// gaps counts leaves closed without matching their bound. A tree with
	// gaps proves nothing even when exhausted.
	gaps int
	// timedOut is set when the deadline ended the run.
	timedOut bool
}

// solveAxis bounds axis k under c. It returns false when the cuts are
// contradictory.
func (s *search) solveAxis(k int, c cuts) (*axisSol, bool) {
	ax := &s.m.axes[k]
	least, extent, ok := tighten(ax, c, nil)
	if !ok {
		return nil, false
	}
	floor := s.m.wt.Size * float64(extent)

	s.lpSolves++
	res, err := solveAxisLP(ax, c, s.m.wt)
	if err != nil {
		s.fallbacks++
		s.logger.Debug("lp relaxation failed, using least placement", "axis", k, "error", err)
		return &axisSol{pos: least, extent: extent, bound: floor}, true
	}
	pos, ext, ok := snap(ax, c, res)
	if !ok {
		pos, ext = least, extent
	}
	return &axisSol{pos: pos, extent: ext, bound: max(res.obj, floor)}, true
}

// run explores the tree depth first from the root and reports whether it was
// exhausted.
func (s *search) run(ctx context.Context) (bool, error) {
	n := s.m.n
	stack := []*node{{pairs: newBitset(n * n), edges: newBitset(n)}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				s.timedOut = true
				return false, nil
			}
			return false, err
		}
		if s.opts.MaxNodes > 0 && s.explored >= s.opts.MaxNodes {
			return false, nil
		}
		if time.Now().After(s.deadline) {
			s.timedOut = true
			return false, nil
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.explored++
		if s.explored%progressEvery == 0 {
			s.report()
		}

		if !s.resolve(nd) || s.dominated(nd.bound()) {
			s.pruned++
			continue
		}

		x, y := nd.sol[0].pos, nd.sol[1].pos
		children := s.branch(nd, x, y)
		if children == nil {
			s.leaf(nd, x, y)
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return true, nil
}

// leaf offers the placement of a node that needs no more branching. The
// snapped positions can cost more than the relaxation promised, and then the
// subtree below nd is not proven.
func (s *search) leaf(nd *node, x, y []int64) {
	if !s.m.feasible(x, y) {
		s.gaps++
		return
	}
	obj := s.m.objective(x, y)
	if bound := nd.bound(); obj > bound+objectiveEps(bound) {
		s.gaps++
	}
	s.offer(placement{x: x, y: y, obj: obj})
}

// proven reports whether an exhausted run establishes optimality.
func (s *search) proven(exhausted bool) bool { return exhausted && s.gaps == 0 }

// resolve solves the dirty axes of nd.
func (s *search) resolve(nd *node) bool {
	for k := range nd.sol {
		if nd.sol[k] != nil {
			continue
		}
		sol, ok := s.solveAxis(k, nd.cuts[k])
		if !ok {
			return false
		}
		nd.sol[k] = sol
	}
	return true
}

func (s *search) dominated(bound float64) bool {
	return s.haveBest && bound >= s.best.obj-objectiveEps(s.best.obj)
}

func (s *search) offer(pl placement) {
	if s.haveBest && pl.obj >= s.best.obj-objectiveEps(s.best.obj) {
		return
	}
	s.best = pl
	s.haveBest = true
	s.logger.Debug("new incumbent", "objective", pl.obj/Scale, "nodes", s.explored)
	s.report()
}

func (s *search) report() {
	if s.opts.Progress == nil {
		return
	}
	p := Progress{Explored: s.explored, Pruned: s.pruned}
	if s.haveBest {
		p.Best = s.best.obj / Scale
	}
	s.opts.Progress(p)
}

// =============================================================================
// Branching
// =============================================================================

type child struct {
	nd    *node
	shift int64
}

// branch splits nd on its worst violation. It returns nil when the node's
// placement violates nothing.
func (s *search) branch(nd *node, x, y []int64) []*node {
	m := s.m
	w, h := m.axes[0].size, m.axes[1].size

	bi, bj := -1, -1
	var worst int64
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if nd.pairs.has(i*m.n + j) {
				continue
			}
			if a := m.overlapArea(x, y, i, j); a > worst {
				worst, bi, bj = a, i, j
			}
		}
	}
	if bi >= 0 {
		i, j := bi, bj
		return order([]child{
			s.sepChild(nd, 0, i, j, x[i]+w[i]-x[j]),
			s.sepChild(nd, 0, j, i, x[j]+w[j]-x[i]),
			s.sepChild(nd, 1, i, j, y[i]+h[i]-y[j]),
			s.sepChild(nd, 1, j, i, y[j]+h[j]-y[i]),
		})
	}

	width, height := nd.sol[0].extent, nd.sol[1].extent
	for i, req := range m.edge {
		if !req || nd.edges.has(i) || m.touches(x, y, i, width, height) {
			continue
		}
		return order([]child{
			s.pinChild(nd, 0, i, sideLow, x[i]),
			s.pinChild(nd, 1, i, sideLow, y[i]),
			s.pinChild(nd, 0, i, sideHigh, width-x[i]-w[i]),
			s.pinChild(nd, 1, i, sideHigh, height-y[i]-h[i]),
		})
	}
	return nil
}

func (s *search) sepChild(nd *node, k, lo, hi int, shift int64) child {
	c := s.derive(nd, k)
	c.cuts[k] = nd.cuts[k].withSep(sep{lo: lo, hi: hi})
	i, j := min(lo, hi), max(lo, hi)
	c.pairs = nd.pairs.with(i*s.m.n + j)
	return child{nd: c, shift: shift}
}

func (s *search) pinChild(nd *node, k, i int, sd side, shift int64) child {
	c := s.derive(nd, k)
	c.cuts[k] = nd.cuts[k].withPin(pin{i: i, side: sd})
	c.edges = nd.edges.with(i)
	return child{nd: c, shift: shift}
}

// derive copies nd and marks axis k dirty. The other axis keeps the parent's
// solution.
func (s *search) derive(nd *node, k int) *node {
	c := &node{cuts: nd.cuts, sol: nd.sol, pairs: nd.pairs, edges: nd.edges}
	c.sol[k] = nil
	return c
}

// order sorts children by how far the placement has to move to satisfy
// them, least first.
func order(cs []child) []*node {
	slices.SortStableFunc(cs, func(a, b child) int { return cmp.Compare(a.shift, b.shift) })
	out := make([]*node, len(cs))
	for i, c := range cs {
		out[i] = c.nd
	}
	return out
}

// =============================================================================
// Bitset
// =============================================================================

type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

// with returns a copy of b with bit i set.
func (b bitset) with(i int) bitset {
	out := make(bitset, len(b))
	copy(out, b)
	out[i/64] |= 1 << (uint(i) % 64)
	return out
}
