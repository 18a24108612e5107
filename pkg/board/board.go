// Package board describes the input and output of a layout run.
//
// # Board files
//
// A board lists components with their footprint sizes and the nets that
// connect them. JSON and TOML are both accepted:
//
//	name = "sensor-node"
//
//	[[components]]
//	ref = "U1"
//	footprint = "QFN-32"
//	width = 5.0
//	height = 5.0
//	pads = [{ name = "1", x = 0.2, y = 4.5 }]
//
//	[[components]]
//	ref = "J1"
//	footprint = "USB-C"
//	width = 9.0
//	height = 7.5
//	edge = true
//
//	[[nets]]
//	name = "VBUS"
//	members = ["J1:A4", "U1:1", "C1"]
//
// Net members are references, optionally followed by ":pad". A wire attaches
// to the named pad when the component declares it, otherwise to the centre
// of the component. Plain connections (pairs of references) can be given in
// place of, or in addition to, nets.
//
// # Layouts
//
// A [Layout] is the placement result: an absolute bottom-left position per
// component plus cluster boxes, wires and statistics. It is written as JSON
// and is what the renderers consume.
package board

import (
	"path"
	"strings"

	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/netgraph"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// DefaultUnits is assumed when a board does not name its units.
const DefaultUnits = "mm"

// Board is a parsed board description.
type Board struct {
	Name        string          `json:"name,omitempty" toml:"name"`
	Units       string          `json:"units,omitempty" toml:"units"`
	Components  []Component     `json:"components" toml:"components"`
	Nets        []netgraph.Net  `json:"nets,omitempty" toml:"nets"`
	Connections []netgraph.Pair `json:"connections,omitempty" toml:"connections"`
}

// Component is one footprint on the board.
type Component struct {
	Ref       string  `json:"ref" toml:"ref"`
	Footprint string  `json:"footprint,omitempty" toml:"footprint"`
	Width     float64 `json:"width" toml:"width"`
	Height    float64 `json:"height" toml:"height"`
	// Edge requires the component's cluster to sit on the board outline.
	Edge bool  `json:"edge,omitempty" toml:"edge"`
	Pads []Pad `json:"pads,omitempty" toml:"pads"`
}

// Pad is a named attachment point relative to the component's bottom-left
// corner.
type Pad struct {
	Name string  `json:"name" toml:"name"`
	X    float64 `json:"x" toml:"x"`
	Y    float64 `json:"y" toml:"y"`
}

// Label returns the footprint name, or the reference when none is set.
func (c Component) Label() string {
	if c.Footprint != "" {
		return c.Footprint
	}
	return c.Ref
}

func (c Component) pad(name string) (Pad, bool) {
	for _, p := range c.Pads {
		if p.Name == name {
			return p, true
		}
	}
	return Pad{}, false
}

// SplitPin splits "U1:3" into reference and pad name.
func SplitPin(pin string) (ref, pad string) {
	ref, pad, _ = strings.Cut(strings.TrimSpace(pin), ":")
	return ref, pad
}

// Validate checks references, sizes and that every net member and
// connection names a known component.
func (b *Board) Validate() error {
	if err := errors.ValidateBoardName(b.Name); err != nil {
		return err
	}
	seen := make(map[string]bool, len(b.Components))
	for i, c := range b.Components {
		if err := errors.ValidateReference(c.Ref); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidBoard, err, "component %d", i)
		}
		if seen[c.Ref] {
			return errors.New(errors.ErrCodeInvalidBoard, "duplicate component %s", c.Ref)
		}
		seen[c.Ref] = true
		if !(c.Width > 0) || !(c.Height > 0) {
			return errors.New(errors.ErrCodeInvalidBoard, "component %s has invalid size %gx%g", c.Ref, c.Width, c.Height)
		}
	}
	for _, n := range b.Nets {
		for _, m := range n.Members {
			if ref, _ := SplitPin(m); !seen[ref] {
				return errors.New(errors.ErrCodeInvalidBoard, "net %s references unknown component %s", n.Name, ref)
			}
		}
	}
	for _, p := range b.Connections {
		if !seen[p.A] || !seen[p.B] {
			return errors.New(errors.ErrCodeInvalidBoard, "connection %s-%s references an unknown component", p.A, p.B)
		}
	}
	return nil
}

// Refs returns every component reference in file order.
func (b *Board) Refs() []string {
	out := make([]string, len(b.Components))
	for i, c := range b.Components {
		out[i] = c.Ref
	}
	return out
}

// Index maps references to component positions.
func (b *Board) Index() map[string]int {
	idx := make(map[string]int, len(b.Components))
	for i, c := range b.Components {
		idx[c.Ref] = i
	}
	return idx
}

// Pairs returns the component-level connections implied by nets and
// explicit connections, in first-seen order.
func (b *Board) Pairs() []netgraph.Pair {
	nets := make([]netgraph.Net, len(b.Nets))
	for i, n := range b.Nets {
		refs := make([]string, len(n.Members))
		for k, m := range n.Members {
			refs[k], _ = SplitPin(m)
		}
		nets[i] = netgraph.Net{Name: n.Name, Members: refs}
	}
	return append(netgraph.FromNets(nets), b.Connections...)
}

// Graph builds the connectivity graph. Every component is a node, connected
// or not.
func (b *Board) Graph() *netgraph.Graph {
	g := netgraph.Build(b.Pairs())
	for _, c := range b.Components {
		g.AddNode(c.Ref)
	}
	return g
}

// Rects returns the footprint of every component grown by padding.
func (b *Board) Rects(padding float64) []pack.Rect {
	out := make([]pack.Rect, len(b.Components))
	for i, c := range b.Components {
		out[i] = pack.Rect{W: c.Width + padding, H: c.Height + padding}
	}
	return out
}

// attach returns the local attachment point of pad on component i.
func (b *Board) attach(i int, pad string, padding float64) pack.Point {
	c := b.Components[i]
	if p, ok := c.pad(pad); ok && pad != "" {
		return pack.Point{X: p.X + padding/2, Y: p.Y + padding/2}
	}
	return pack.Point{X: (c.Width + padding) / 2, Y: (c.Height + padding) / 2}
}

// Wires returns one wire per distinct pair of pins on the same net, and one
// centre-to-centre wire per explicit connection not already wired.
func (b *Board) Wires(padding float64) []pack.Wire {
	idx := b.Index()
	seen := make(map[pinKey]bool)
	wired := make(map[pinKey]bool)
	var out []pack.Wire

	add := func(pa, pb string) {
		ra, da := SplitPin(pa)
		rb, db := SplitPin(pb)
		if ra == rb {
			return
		}
		k := newPinKey(pa, pb)
		if seen[k] {
			return
		}
		seen[k] = true
		wired[newPinKey(ra, rb)] = true
		ia, ib := idx[ra], idx[rb]
		out = append(out, pack.Wire{
			Src:   ia,
			Dst:   ib,
			SrcAt: b.attach(ia, da, padding),
			DstAt: b.attach(ib, db, padding),
		})
	}

	for _, n := range b.Nets {
		pins := dedupe(n.Members)
		for i := 0; i < len(pins); i++ {
			for j := i + 1; j < len(pins); j++ {
				add(pins[i], pins[j])
			}
		}
	}
	for _, p := range b.Connections {
		if !wired[newPinKey(p.A, p.B)] {
			add(p.A, p.B)
		}
	}
	return out
}

// pinKey is an unordered pair of pins or references.
type pinKey struct{ a, b string }

func newPinKey(a, b string) pinKey {
	if b < a {
		a, b = b, a
	}
	return pinKey{a, b}
}

func dedupe(pins []string) []string {
	out := make([]string, 0, len(pins))
	seen := make(map[string]bool, len(pins))
	for _, p := range pins {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// EdgeRefs returns the set of components that must reach the board outline:
// those marked edge and those whose reference matches one of the glob
// patterns (e.g. "J*", "SW*").
func (b *Board) EdgeRefs(patterns []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, pat := range patterns {
		if _, err := path.Match(pat, ""); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "edge pattern %q", pat)
		}
	}
	for _, c := range b.Components {
		if c.Edge {
			out[c.Ref] = true
			continue
		}
		for _, pat := range patterns {
			if ok, _ := path.Match(strings.ToUpper(pat), strings.ToUpper(c.Ref)); ok {
				out[c.Ref] = true
				break
			}
		}
	}
	return out, nil
}

// UnitsOrDefault returns the board units.
func (b *Board) UnitsOrDefault() string {
	if b.Units == "" {
		return DefaultUnits
	}
	return b.Units
}
