package cluster_test

import (
	"fmt"

	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/netgraph"
)

func ExampleGroup() {
	g := netgraph.Build([]netgraph.Pair{
		{A: "U1", B: "R1"},
		{A: "U1", B: "C1"},
		{A: "U2", B: "R2"},
	})
	res := cluster.Group([]string{"U1", "U2", "R1", "C1", "R2"}, g, classify.IsBasic, cluster.Options{})
	for _, c := range res.Clusters {
		fmt.Println(c.Seed, c.Members)
	}
	fmt.Println("orphans:", len(res.Orphans))
	// Output:
	// U1 [U1 R1 C1]
	// U2 [U2 R2]
	// orphans: 0
}
