package cluster

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/netgraph"
)

func TestGroupTwoSeeds(t *testing.T) {
	g := netgraph.Build([]netgraph.Pair{
		{A: "U1", B: "R1"},
		{A: "U1", B: "C1"},
		{A: "U2", B: "R2"},
	})
	res := Group([]string{"U1", "U2", "R1", "C1", "R2"}, g, classify.IsBasic, Options{})

	want := []Cluster{
		{Seed: "U1", Members: []string{"U1", "R1", "C1"}},
		{Seed: "U2", Members: []string{"U2", "R2"}},
	}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Errorf("Clusters = %+v, want %+v", res.Clusters, want)
	}
	if len(res.Orphans) != 0 {
		t.Errorf("Orphans = %v, want none", res.Orphans)
	}
}

func TestGroupFollowsBasicChains(t *testing.T) {
	// U1 - R1 - C1 - U2: the chain ends at the next major part.
	g := netgraph.Build([]netgraph.Pair{
		{A: "U1", B: "R1"},
		{A: "R1", B: "C1"},
		{A: "C1", B: "U2"},
		{A: "U2", B: "D1"},
	})
	res := Group([]string{"U1", "U2", "R1", "C1", "D1"}, g, classify.IsBasic, Options{})

	want := []Cluster{
		{Seed: "U1", Members: []string{"U1", "R1", "C1"}},
		{Seed: "U2", Members: []string{"U2", "D1"}},
	}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Errorf("Clusters = %+v, want %+v", res.Clusters, want)
	}
}

func TestGroupDepthFirstOrder(t *testing.T) {
	tests := []struct {
		name  string
		pairs []netgraph.Pair
		want  []string
	}{
		{
			name:  "branch before sibling",
			pairs: []netgraph.Pair{{A: "U1", B: "R1"}, {A: "U1", B: "C1"}, {A: "R1", B: "R2"}},
			want:  []string{"U1", "R1", "R2", "C1"},
		},
		{
			name:  "diamond",
			pairs: []netgraph.Pair{{A: "U1", B: "R1"}, {A: "U1", B: "C1"}, {A: "R1", B: "C1"}},
			want:  []string{"U1", "R1", "C1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := netgraph.Build(tt.pairs)
			res := Group(g.Nodes(), g, classify.IsBasic, Options{})
			if len(res.Clusters) != 1 || !reflect.DeepEqual(res.Clusters[0].Members, tt.want) {
				t.Errorf("Clusters = %+v, want members %v", res.Clusters, tt.want)
			}
		})
	}
}

func TestGroupLongChain(t *testing.T) {
	const n = 20000
	pairs := make([]netgraph.Pair, 0, n)
	prev := "U1"
	for i := 1; i <= n; i++ {
		cur := fmt.Sprintf("R%d", i)
		pairs = append(pairs, netgraph.Pair{A: prev, B: cur})
		prev = cur
	}
	g := netgraph.Build(pairs)
	res := Group(g.Nodes(), g, classify.IsBasic, Options{})
	if len(res.Clusters) != 1 || len(res.Clusters[0].Members) != n+1 {
		t.Fatalf("got %d clusters", len(res.Clusters))
	}
	if last := res.Clusters[0].Members[n]; last != prev {
		t.Errorf("last member = %s, want %s", last, prev)
	}
}

func TestGroupSharedPassiveGoesToFirstSeed(t *testing.T) {
	g := netgraph.Build([]netgraph.Pair{
		{A: "U2", B: "C9"},
		{A: "U1", B: "C9"},
	})
	res := Group([]string{"U1", "U2", "C9"}, g, classify.IsBasic, Options{})
	if got := res.Index()["C9"]; got != 0 {
		t.Errorf("C9 in cluster %d, want 0 (first seed in id order)", got)
	}
}

func TestGroupOrphans(t *testing.T) {
	g := netgraph.Build([]netgraph.Pair{
		{A: "U1", B: "R1"},
		{A: "R7", B: "C7"},
	})
	ids := []string{"R7", "U1", "R1", "C7", "J1"}

	dropped := Group(ids, g, classify.IsBasic, Options{})
	if want := []string{"R7", "C7"}; !reflect.DeepEqual(dropped.Orphans, want) {
		t.Errorf("Orphans = %v, want %v", dropped.Orphans, want)
	}
	if got := dropped.Size(); got != 3 {
		t.Errorf("Size() = %d, want 3 (U1, R1, J1)", got)
	}

	single := Group(ids, g, classify.IsBasic, Options{Orphans: OrphanSingleton})
	if got := len(single.Clusters); got != 4 {
		t.Fatalf("got %d clusters, want 4", got)
	}
	if c := single.Clusters[2]; c.Seed != "R7" || len(c.Members) != 1 {
		t.Errorf("Clusters[2] = %+v, want singleton R7", c)
	}
	if got := single.Size(); got != len(ids) {
		t.Errorf("Size() = %d, want %d", got, len(ids))
	}
}

func TestGroupCoverage(t *testing.T) {
	ids := []string{"U1", "U2", "U3", "R1", "R2", "C1", "C2", "L1", "Y1", "D1"}
	g := netgraph.Build([]netgraph.Pair{
		{A: "U1", B: "R1"}, {A: "R1", B: "C1"}, {A: "U2", B: "R2"},
		{A: "R2", B: "C2"}, {A: "C2", B: "L1"}, {A: "U3", B: "Y1"},
		{A: "U1", B: "U2"}, {A: "U3", B: "U1"},
	})
	res := Group(ids, g, classify.IsBasic, Options{})

	seen := map[string]int{}
	for _, c := range res.Clusters {
		if c.Members[0] != c.Seed {
			t.Errorf("cluster %s does not start with its seed", c.Seed)
		}
		if classify.IsBasic(c.Seed) {
			t.Errorf("basic seed %s", c.Seed)
		}
		for i, m := range c.Members {
			seen[m]++
			if i > 0 && !classify.IsBasic(m) {
				t.Errorf("major %s pulled into cluster %s", m, c.Seed)
			}
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s appears in %d clusters", id, n)
		}
	}
	for _, id := range []string{"U1", "U2", "U3"} {
		if seen[id] != 1 {
			t.Errorf("major %s not clustered", id)
		}
	}
	if want := []string{"D1"}; !reflect.DeepEqual(res.Orphans, want) {
		t.Errorf("Orphans = %v, want %v", res.Orphans, want)
	}
}

func TestOrphanPolicyValid(t *testing.T) {
	for _, p := range []OrphanPolicy{"", OrphanDrop, OrphanSingleton} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if OrphanPolicy("keep").Valid() {
		t.Error(`"keep" should be invalid`)
	}
}
