// Package netgraph holds the undirected connectivity between components.
//
// Nodes and neighbours keep first-insertion order, so two graphs built from
// the same pairs traverse identically.
package netgraph

// Pair is an unordered connection between two component references.
type Pair struct {
	A string `json:"a" toml:"a"`
	B string `json:"b" toml:"b"`
}

// Graph is an undirected simple graph over component references.
type Graph struct {
	order []string
	adj   map[string]*neighbors
	edges int
}

type neighbors struct {
	list []string
	set  map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[string]*neighbors)}
}

// Build adds both directions of every pair. Repeated and reversed pairs are
// no-ops; self-pairs are ignored.
func Build(pairs []Pair) *Graph {
	g := New()
	for _, p := range pairs {
		g.AddEdge(p.A, p.B)
	}
	return g
}

// AddNode registers id without connecting it.
func (g *Graph) AddNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.adj[id] = &neighbors{set: make(map[string]struct{})}
	g.order = append(g.order, id)
}

// AddEdge connects a and b. It reports whether the edge is new.
func (g *Graph) AddEdge(a, b string) bool {
	if a == b {
		return false
	}
	g.AddNode(a)
	g.AddNode(b)
	na := g.adj[a]
	if _, ok := na.set[b]; ok {
		return false
	}
	nb := g.adj[b]
	na.set[b] = struct{}{}
	na.list = append(na.list, b)
	nb.set[a] = struct{}{}
	nb.list = append(nb.list, a)
	g.edges++
	return true
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Connected reports whether a and b share an edge.
func (g *Graph) Connected(a, b string) bool {
	n, ok := g.adj[a]
	if !ok {
		return false
	}
	_, ok = n.set[b]
	return ok
}

// Neighbors returns the neighbours of id in insertion order. The slice is
// shared with the graph and must not be modified.
func (g *Graph) Neighbors(id string) []string {
	if n, ok := g.adj[id]; ok {
		return n.list
	}
	return nil
}

// Degree returns the number of neighbours of id.
func (g *Graph) Degree(id string) int { return len(g.Neighbors(id)) }

// Nodes returns every node in order of first appearance.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Pairs lists every edge once, in insertion order of its first endpoint.
func (g *Graph) Pairs() []Pair {
	out := make([]Pair, 0, g.edges)
	seen := make(map[string]struct{}, len(g.order))
	for _, a := range g.order {
		for _, b := range g.adj[a].list {
			if _, done := seen[b]; done {
				continue
			}
			out = append(out, Pair{A: a, B: b})
		}
		seen[a] = struct{}{}
	}
	return out
}
