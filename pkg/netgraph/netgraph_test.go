package netgraph

import (
	"reflect"
	"testing"
)

func TestBuildSymmetric(t *testing.T) {
	g := Build([]Pair{{"U1", "R1"}, {"U1", "C1"}, {"R1", "U1"}, {"U1", "R1"}, {"C1", "C1"}})

	if got := g.EdgeCount(); got != 2 {
		t.Errorf("EdgeCount() = %d, want 2", got)
	}
	if !g.Connected("R1", "U1") || !g.Connected("U1", "R1") {
		t.Error("edges must be symmetric")
	}
	if g.Connected("C1", "C1") {
		t.Error("self-pairs must be ignored")
	}
	if got, want := g.Neighbors("U1"), []string{"R1", "C1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(U1) = %v, want %v", got, want)
	}
	if got, want := g.Nodes(), []string{"U1", "R1", "C1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() = %v, want %v", got, want)
	}
}

func TestBuildDeterministic(t *testing.T) {
	pairs := []Pair{{"U2", "R2"}, {"U1", "R1"}, {"R1", "C1"}, {"U1", "C1"}, {"U2", "U1"}}
	a, b := Build(pairs), Build(pairs)
	for _, id := range a.Nodes() {
		if !reflect.DeepEqual(a.Neighbors(id), b.Neighbors(id)) {
			t.Errorf("Neighbors(%s) differ between builds", id)
		}
	}
	if !reflect.DeepEqual(a.Pairs(), b.Pairs()) {
		t.Error("Pairs() differ between builds")
	}
	if got := len(a.Pairs()); got != a.EdgeCount() {
		t.Errorf("Pairs() has %d entries, want %d", got, a.EdgeCount())
	}
}

func TestUnknownNode(t *testing.T) {
	g := New()
	g.AddNode("U9")
	if !g.Has("U9") || g.Degree("U9") != 0 {
		t.Error("isolated node should exist with degree 0")
	}
	if g.Neighbors("nope") != nil || g.Has("nope") {
		t.Error("unknown node should have no neighbours")
	}
	if g.AddEdge("U9", "U9") {
		t.Error("self edge reported as added")
	}
}

func TestFromNets(t *testing.T) {
	nets := []Net{
		{Name: "GND", Members: []string{"U1", "C1", "R1", "U1"}},
		{Name: "VCC", Members: []string{"C1", "U1"}},
		{Name: "NC", Members: []string{"U2"}},
		{Name: "LOOP", Members: []string{"R2", "R2"}},
	}
	want := []Pair{{"U1", "C1"}, {"U1", "R1"}, {"C1", "R1"}}
	if got := FromNets(nets); !reflect.DeepEqual(got, want) {
		t.Errorf("FromNets() = %v, want %v", got, want)
	}
}
