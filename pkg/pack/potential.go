package pack

// arc encodes pos[to] >= pos[from] + gap.
type arc struct {
	from, to int
	gap      int64
}

// tighten solves the difference constraints of one axis under c by longest
// paths. Node n stands for the extent. Starting from start (or from zero when
// start is nil) every position is only ever raised, so the result is the
// least placement that dominates start. ok is false when the cuts admit no
// placement within the axis limit, or when start already sits above an upper
// bound.
func tighten(ax *axis, c cuts, start []int64) (pos []int64, extent int64, ok bool) {
	n := len(ax.size)
	p := make([]int64, n+1)
	if start != nil {
		copy(p, start)
	}

	arcs := make([]arc, 0, n+len(c.seps)+len(c.pins))
	for i, s := range ax.size {
		arcs = append(arcs, arc{from: i, to: n, gap: s})
	}
	for _, s := range c.seps {
		arcs = append(arcs, arc{from: s.lo, to: s.hi, gap: ax.size[s.lo]})
	}
	for _, pn := range c.pins {
		if pn.side == sideHigh {
			arcs = append(arcs, arc{from: n, to: pn.i, gap: -ax.size[pn.i]})
		}
	}

	for round := 0; ; round++ {
		changed := false
		for _, a := range arcs {
			if v := p[a.from] + a.gap; v > p[a.to] {
				p[a.to] = v
				changed = true
			}
		}
		if !changed {
			break
		}
		if round > n+1 {
			return nil, 0, false
		}
		if p[n] > ax.limit {
			return nil, 0, false
		}
	}

	for _, pn := range c.pins {
		if pn.side == sideLow && p[pn.i] != 0 {
			return nil, 0, false
		}
	}
	if p[n] > ax.limit {
		return nil, 0, false
	}
	pos = p[:n]
	return pos, ax.extent(pos), true
}

// snap rounds an LP vertex onto the integer grid and repairs whatever the
// rounding broke. It returns false when the repair overshoots an upper
// bound, in which case callers fall back to the least placement.
func snap(ax *axis, c cuts, res lpResult) ([]int64, int64, bool) {
	n := len(ax.size)
	start := make([]int64, n+1)
	for i, v := range res.pos {
		start[i] = max(0, int64(roundHalfUp(v)))
	}
	start[n] = max(0, int64(roundHalfUp(res.extent)))
	return tighten(ax, c, start)
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int64(v + 0.5))
}
