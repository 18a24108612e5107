// Package cluster groups components around major parts.
//
// Every major component seeds one cluster and pulls in the basic
// components reachable from it through basic components only. A basic
// component joins the first cluster whose traversal reaches it.
package cluster

import (
	"github.com/matzehuels/boardpack/pkg/netgraph"
)

// OrphanPolicy decides what happens to basic components no seed reaches.
type OrphanPolicy string

const (
	// OrphanDrop leaves orphans out of every cluster. They are still listed
	// in Result.Orphans.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanSingleton gives each orphan a cluster of its own.
	OrphanSingleton OrphanPolicy = "singleton"
)

// Valid reports whether p is a known policy. The empty policy means drop.
func (p OrphanPolicy) Valid() bool {
	return p == "" || p == OrphanDrop || p == OrphanSingleton
}

// Cluster is one group. Members[0] is always the seed.
type Cluster struct {
	Seed    string   `json:"seed"`
	Members []string `json:"members"`
}

// Options tunes Group.
type Options struct {
	Orphans OrphanPolicy
}

// Result is the outcome of Group.
type Result struct {
	Clusters []Cluster `json:"clusters"`
	Orphans  []string  `json:"orphans,omitempty"`
}

// Group partitions ids into clusters. Ids are visited in the given order;
// each unvisited major id seeds a depth-first traversal over g that follows
// basic neighbours only, in adjacency order. Ids absent from g form
// single-member clusters if major and orphans if basic.
func Group(ids []string, g *netgraph.Graph, isBasic func(string) bool, opts Options) Result {
	if g == nil {
		g = netgraph.New()
	}
	visited := make(map[string]bool, len(ids))
	var res Result

	for _, id := range ids {
		if visited[id] || isBasic(id) {
			continue
		}
		c := Cluster{Seed: id}
		// Neighbours go on the stack in reverse so they pop in adjacency
		// order, matching a recursive preorder walk.
		stack := []string{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			c.Members = append(c.Members, cur)
			nbs := g.Neighbors(cur)
			for i := len(nbs) - 1; i >= 0; i-- {
				if nb := nbs[i]; !visited[nb] && isBasic(nb) {
					stack = append(stack, nb)
				}
			}
		}
		res.Clusters = append(res.Clusters, c)
	}

	for _, id := range ids {
		if visited[id] {
			continue
		}
		visited[id] = true
		res.Orphans = append(res.Orphans, id)
		if opts.Orphans == OrphanSingleton {
			res.Clusters = append(res.Clusters, Cluster{Seed: id, Members: []string{id}})
		}
	}
	return res
}

// Index maps every clustered id to the position of its cluster.
func (r Result) Index() map[string]int {
	idx := make(map[string]int)
	for i, c := range r.Clusters {
		for _, m := range c.Members {
			idx[m] = i
		}
	}
	return idx
}

// Size returns the number of clustered ids.
func (r Result) Size() int {
	n := 0
	for _, c := range r.Clusters {
		n += len(c.Members)
	}
	return n
}
