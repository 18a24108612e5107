package board

import (
	"github.com/matzehuels/boardpack/pkg/pack"
)

// Layout is a finished placement.
type Layout struct {
	Board  string  `json:"board,omitempty"`
	RunID  string  `json:"run_id,omitempty"`
	Units  string  `json:"units"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Components []Placement  `json:"components"`
	Clusters   []ClusterBox `json:"clusters"`
	Wires      []Segment    `json:"wires,omitempty"`

	// Orphans are basic components no major part reached. They are left
	// unplaced unless the orphan policy gives them their own cluster.
	Orphans []string `json:"orphans,omitempty"`
	// Ambiguous lists references the classifier could not decide cleanly.
	Ambiguous []string `json:"ambiguous,omitempty"`
	// Degraded is set when any solve stopped before proving optimality.
	Degraded bool `json:"degraded,omitempty"`
	// TimeLimited is set when a deadline, not the node budget, cut a solve
	// short. Such a layout may differ between runs.
	TimeLimited bool `json:"time_limited,omitempty"`

	Stats Stats `json:"stats"`
}

// Placement is the absolute position of one component.
type Placement struct {
	Ref       string  `json:"ref"`
	Footprint string  `json:"footprint,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
	// Cluster indexes Layout.Clusters, -1 when unplaced.
	Cluster int  `json:"cluster"`
	Placed  bool `json:"placed"`
}

// Rect returns the placed footprint size.
func (p Placement) Rect() pack.Rect { return pack.Rect{W: p.W, H: p.H} }

// Origin returns the bottom-left corner.
func (p Placement) Origin() pack.Point { return pack.Point{X: p.X, Y: p.Y} }

// ClusterBox is the bounding box of one cluster on the board.
type ClusterBox struct {
	Seed           string   `json:"seed"`
	Representative string   `json:"representative,omitempty"`
	Members        []string `json:"members"`
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	W              float64  `json:"w"`
	H              float64  `json:"h"`
	Edge           bool     `json:"edge,omitempty"`
	Status         string   `json:"status"`
}

// Segment is a wire between two absolute attachment points.
type Segment struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	A    pack.Point `json:"a"`
	B    pack.Point `json:"b"`
}

// Length returns the Manhattan length.
func (s Segment) Length() float64 {
	dx, dy := s.A.X-s.B.X, s.A.Y-s.B.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Stats summarises a layout.
type Stats struct {
	Components    int     `json:"components"`
	Placed        int     `json:"placed"`
	Clusters      int     `json:"clusters"`
	Wires         int     `json:"wires"`
	ComponentArea float64 `json:"component_area"`
	BoardArea     float64 `json:"board_area"`
	Utilization   float64 `json:"utilization"`
	WireLength    float64 `json:"wire_length"`
	Objective     float64 `json:"objective"`
	ElapsedMillis int64   `json:"elapsed_ms"`
}

// Placed returns the placements that received a position.
func (l *Layout) Placed() []Placement {
	out := make([]Placement, 0, len(l.Components))
	for _, c := range l.Components {
		if c.Placed {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the placement of ref.
func (l *Layout) Find(ref string) (Placement, bool) {
	for _, c := range l.Components {
		if c.Ref == ref {
			return c, true
		}
	}
	return Placement{}, false
}

// Unplaced returns references without a position.
func (l *Layout) Unplaced() []string {
	var out []string
	for _, c := range l.Components {
		if !c.Placed {
			out = append(out, c.Ref)
		}
	}
	return out
}
