package compose

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
)

func center(r pack.Rect) pack.Point { return r.Center() }

// twoClusters is U1 with R1, C1 and U2 with R2, wired centre to centre.
func twoClusters() Request {
	rects := []pack.Rect{{W: 4, H: 4}, {W: 1, H: 0.5}, {W: 0.5, H: 1}, {W: 3, H: 2}, {W: 1, H: 0.5}}
	wire := func(a, b int) pack.Wire {
		return pack.Wire{Src: a, Dst: b, SrcAt: center(rects[a]), DstAt: center(rects[b])}
	}
	return Request{
		Rects:    rects,
		Names:    []string{"QFN-32", "R0603", "C0402", "SOIC-8", "R0603"},
		Wires:    []pack.Wire{wire(0, 1), wire(0, 2), wire(3, 4), wire(0, 3), wire(2, 4)},
		Clusters: [][]int{{0, 1, 2}, {3, 4}},
		Edge:     []bool{false, true},
	}
}

func requireNoOverlap(t *testing.T, req Request, res *Result) {
	t.Helper()
	var rects []pack.Rect
	var pos []pack.Point
	for i, placed := range res.Placed {
		if placed {
			rects = append(rects, req.Rects[i])
			pos = append(pos, res.Positions[i])
		}
	}
	assert.Empty(t, pack.Overlaps(rects, pos), "global placement overlaps")

	width, height := pack.Bounds(rects, pos)
	assert.LessOrEqual(t, width, res.Width+pack.Tolerance)
	assert.LessOrEqual(t, height, res.Height+pack.Tolerance)
}

func TestComposeTwoClusters(t *testing.T) {
	req := twoClusters()
	res, err := Compose(context.Background(), req, Options{})
	require.NoError(t, err)

	require.Len(t, res.Groups, 2)
	assert.Equal(t, "QFN-32", res.Groups[0].Representative)
	assert.Equal(t, "SOIC-8", res.Groups[1].Representative)
	for _, placed := range res.Placed {
		assert.True(t, placed)
	}
	requireNoOverlap(t, req, res)

	// Every member sits inside its cluster box.
	for ci, g := range res.Groups {
		offset := res.Global.Positions[ci]
		for k, i := range g.Members {
			p := res.Positions[i]
			assert.InDelta(t, offset.X+g.Local[k].X, p.X, 1e-9)
			assert.LessOrEqual(t, p.X+req.Rects[i].W, offset.X+g.Size.W+pack.Tolerance)
			assert.LessOrEqual(t, p.Y+req.Rects[i].H, offset.Y+g.Size.H+pack.Tolerance)
		}
	}

	// Cluster 1 must touch the board edge.
	g1 := res.Groups[1]
	assert.True(t, pack.TouchesEdge(g1.Size, res.Global.Positions[1], res.Width, res.Height))
	assert.False(t, res.Degraded)
}

func TestComposeUnclusteredRects(t *testing.T) {
	req := twoClusters()
	req.Clusters = [][]int{{0, 1, 2}}
	req.Edge = []bool{false}

	res, err := Compose(context.Background(), req, Options{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false, false}, res.Placed)
	requireNoOverlap(t, req, res)
}

func TestComposeSingleMember(t *testing.T) {
	req := Request{
		Rects:    []pack.Rect{{W: 2, H: 1}, {W: 1, H: 3}},
		Clusters: [][]int{{0}, {1}},
		Edge:     []bool{false, false},
	}
	res, err := Compose(context.Background(), req, Options{})
	require.NoError(t, err)
	for _, g := range res.Groups {
		assert.Equal(t, []pack.Point{{}}, g.Local)
		assert.Equal(t, pack.StatusOptimal, g.Status)
		assert.Empty(t, g.Representative)
	}
	requireNoOverlap(t, req, res)
}

func TestComposeEmpty(t *testing.T) {
	res, err := Compose(context.Background(), Request{}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Positions)
	assert.Zero(t, res.Width)
}

func TestComposeValidation(t *testing.T) {
	base := twoClusters
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"edge mismatch", func(r *Request) { r.Edge = []bool{true} }},
		{"names mismatch", func(r *Request) { r.Names = []string{"a"} }},
		{"member out of range", func(r *Request) { r.Clusters[1] = []int{3, 9} }},
		{"overlapping clusters", func(r *Request) { r.Clusters[1] = []int{2, 3, 4} }},
		{"empty cluster", func(r *Request) { r.Clusters[1] = nil }},
		{"bad wire", func(r *Request) { r.Wires = append(r.Wires, pack.Wire{Src: 0, Dst: 7}) }},
		{"bad size", func(r *Request) { r.Rects[4] = pack.Rect{W: 0, H: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			_, err := Compose(context.Background(), req, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidModel), "got %v", err)
		})
	}
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Compose(ctx, twoClusters(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestComposeOnGroup(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}
	_, err := Compose(context.Background(), twoClusters(), Options{
		Workers: 1,
		OnGroup: func(i int, g GroupResult) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = true
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0: true, 1: true}, seen)
}

func TestComposeNodeBudgetDegrades(t *testing.T) {
	req := twoClusters()
	res, err := Compose(context.Background(), req, Options{Solver: pack.Options{MaxNodes: 1}})
	require.NoError(t, err)
	requireNoOverlap(t, req, res)
	assert.True(t, res.Degraded)
}

// Composing valid pass-1 and pass-2 placements never overlaps globally.
func TestComposeHierarchicalConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 6; trial++ {
		req := randomRequest(rng, 3+rng.Intn(3))
		res, err := Compose(context.Background(), req, Options{
			Solver: pack.Options{MaxNodes: 150},
		})
		require.NoError(t, err, "trial %d", trial)
		requireNoOverlap(t, req, res)
		for ci, flag := range req.Edge {
			if flag {
				assert.True(t, pack.TouchesEdge(res.Groups[ci].Size, res.Global.Positions[ci], res.Width, res.Height),
					"trial %d cluster %d", trial, ci)
			}
		}
	}
}

func randomRequest(rng *rand.Rand, clusters int) Request {
	var req Request
	for ci := 0; ci < clusters; ci++ {
		size := 1 + rng.Intn(3)
		var members []int
		for k := 0; k < size; k++ {
			members = append(members, len(req.Rects))
			req.Rects = append(req.Rects, pack.Rect{
				W: float64(25+rng.Intn(300)) / 100,
				H: float64(25+rng.Intn(300)) / 100,
			})
		}
		req.Clusters = append(req.Clusters, members)
		req.Edge = append(req.Edge, rng.Intn(2) == 0)
	}
	for k := 0; k < len(req.Rects); k++ {
		a, b := rng.Intn(len(req.Rects)), rng.Intn(len(req.Rects))
		req.Wires = append(req.Wires, pack.Wire{
			Src: a, Dst: b, SrcAt: req.Rects[a].Center(), DstAt: req.Rects[b].Center(),
		})
	}
	return req
}
