package pack

// freeRect is an empty region of a strip, in scaled units.
type freeRect struct {
	x, y, w, h int64
}

// fitRule picks among the free rectangles that can take a piece.
type fitRule int

const (
	// fitBestArea wastes the least free area.
	fitBestArea fitRule = iota
	// fitBottomLeft takes the lowest, then leftmost position.
	fitBottomLeft
)

// maxRects is a maximal-rectangles packer over a strip of fixed width.
// Free rectangles may overlap each other; every placement splits all free
// rectangles it touches and drops the ones contained in others.
type maxRects struct {
	free []freeRect
	rule fitRule
}

func newMaxRects(width, height int64, rule fitRule) *maxRects {
	return &maxRects{
		free: []freeRect{{0, 0, width, height}},
		rule: rule,
	}
}

// insert places a w×h piece and returns its bottom-left corner.
func (mr *maxRects) insert(w, h int64) (x, y int64, ok bool) {
	best := -1
	var bestArea, bestY, bestX int64
	for i, r := range mr.free {
		if w > r.w || h > r.h {
			continue
		}
		area := r.w*r.h - w*h
		if best >= 0 && !mr.better(area, r.y, r.x, bestArea, bestY, bestX) {
			continue
		}
		best, bestArea, bestY, bestX = i, area, r.y, r.x
	}
	if best < 0 {
		return 0, 0, false
	}
	chosen := mr.free[best]
	mr.split(freeRect{x: chosen.x, y: chosen.y, w: w, h: h})
	return chosen.x, chosen.y, true
}

func (mr *maxRects) better(area, y, x, bestArea, bestY, bestX int64) bool {
	switch mr.rule {
	case fitBottomLeft:
		if y != bestY {
			return y < bestY
		}
		if x != bestX {
			return x < bestX
		}
		return area < bestArea
	default:
		if area != bestArea {
			return area < bestArea
		}
		if y != bestY {
			return y < bestY
		}
		return x < bestX
	}
}

// split carves placed out of every free rectangle it overlaps, keeping the up
// to four maximal strips around it.
func (mr *maxRects) split(placed freeRect) {
	next := make([]freeRect, 0, len(mr.free)+4)
	for _, r := range mr.free {
		if !overlapsFree(r, placed) {
			next = append(next, r)
			continue
		}
		if placed.x > r.x {
			next = append(next, freeRect{x: r.x, y: r.y, w: placed.x - r.x, h: r.h})
		}
		if placed.x+placed.w < r.x+r.w {
			next = append(next, freeRect{x: placed.x + placed.w, y: r.y, w: r.x + r.w - placed.x - placed.w, h: r.h})
		}
		if placed.y > r.y {
			next = append(next, freeRect{x: r.x, y: r.y, w: r.w, h: placed.y - r.y})
		}
		if placed.y+placed.h < r.y+r.h {
			next = append(next, freeRect{x: r.x, y: placed.y + placed.h, w: r.w, h: r.y + r.h - placed.y - placed.h})
		}
	}
	mr.free = pruneContained(next)
}

func overlapsFree(a, b freeRect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x && a.y < b.y+b.h && a.y+a.h > b.y
}

// pruneContained drops every rectangle that lies inside another one. Of two
// identical rectangles the first is kept.
func pruneContained(rects []freeRect) []freeRect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]freeRect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsFree(b, a) {
				continue
			}
			if a == b && j > i {
				continue
			}
			contained = true
			break
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

func containsFree(outer, inner freeRect) bool {
	return outer.x <= inner.x && outer.y <= inner.y &&
		outer.x+outer.w >= inner.x+inner.w &&
		outer.y+outer.h >= inner.y+inner.h
}
