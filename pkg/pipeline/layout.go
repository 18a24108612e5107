package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/compose"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout places b without caching. Orphans and ambiguous
// classifications are logged as warnings and recorded on the layout.
// Boards built in code are validated like parsed ones.
func GenerateLayout(ctx context.Context, b *board.Board, opts Options) (*board.Layout, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := opts.Logger

	classifier := classify.New(opts.Rules...)
	refs := b.Refs()
	graph := b.Graph()
	groups := cluster.Group(refs, graph, classifier.IsBasic, cluster.Options{Orphans: opts.Orphans})

	edge, err := b.EdgeRefs(opts.EdgePatterns)
	if err != nil {
		return nil, err
	}

	req, err := composeRequest(b, groups, edge, opts.Padding)
	if err != nil {
		return nil, err
	}
	logger.Debug("prepared board",
		"components", len(refs),
		"connections", graph.EdgeCount(),
		"wires", len(req.Wires),
		"clusters", len(groups.Clusters),
	)

	total := len(groups.Clusters)
	done := 0
	copts := compose.Options{
		Solver:  opts.SolverOptions(),
		Workers: opts.Workers,
		Logger:  logger,
	}
	if opts.OnCluster != nil {
		var mu sync.Mutex
		copts.OnGroup = func(int, compose.GroupResult) {
			mu.Lock()
			defer mu.Unlock()
			done++
			opts.OnCluster(done, total)
		}
	}

	res, err := compose.Compose(ctx, req, copts)
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", nameOf(b), err)
	}

	l := assemble(b, classifier, groups, req, res, opts)
	l.Stats.ElapsedMillis = time.Since(start).Milliseconds()

	for _, ref := range l.Orphans {
		logger.Warn("orphaned component left unplaced", "ref", ref, "policy", opts.Orphans)
	}
	for _, ref := range l.Ambiguous {
		logger.Warn("ambiguous classification", "ref", ref, "kind", classifier.Classify(ref).Kind)
	}
	for ref := range edge {
		if c, ok := l.Find(ref); ok && !c.Placed {
			logger.Warn("edge component is unplaced", "ref", ref)
		}
	}
	if l.Degraded {
		logger.Warn("placement not proven optimal", "time_limit", opts.TimeLimit, "max_nodes", opts.MaxNodes)
	}
	return l, nil
}

// composeRequest indexes the board for the composer. A cluster needs the
// board edge when any of its members does.
func composeRequest(b *board.Board, groups cluster.Result, edge map[string]bool, padding float64) (compose.Request, error) {
	idx := b.Index()
	req := compose.Request{
		Rects:    b.Rects(padding),
		Names:    make([]string, len(b.Components)),
		Wires:    b.Wires(padding),
		Clusters: make([][]int, len(groups.Clusters)),
		Edge:     make([]bool, len(groups.Clusters)),
	}
	for i, c := range b.Components {
		req.Names[i] = c.Label()
	}
	for ci, cl := range groups.Clusters {
		members := make([]int, len(cl.Members))
		for k, ref := range cl.Members {
			i, ok := idx[ref]
			if !ok {
				return compose.Request{}, fmt.Errorf("cluster %s: unknown component %s", cl.Seed, ref)
			}
			members[k] = i
			if edge[ref] {
				req.Edge[ci] = true
			}
		}
		req.Clusters[ci] = members
	}
	return req, nil
}

// assemble converts a composed placement into board coordinates. Padding is
// split evenly around each footprint.
func assemble(b *board.Board, classifier *classify.Classifier, groups cluster.Result,
	req compose.Request, res *compose.Result, opts Options) *board.Layout {
	owner := groups.Index()
	half := opts.Padding / 2

	l := &board.Layout{
		Board:      b.Name,
		Units:      b.UnitsOrDefault(),
		Width:      res.Width,
		Height:     res.Height,
		Components: make([]board.Placement, len(b.Components)),
		Clusters:   make([]board.ClusterBox, len(groups.Clusters)),
		Orphans:    groups.Orphans,
		Degraded:   res.Degraded,

		TimeLimited: res.TimeLimited,
	}

	for i, c := range b.Components {
		cls := classifier.Classify(c.Ref)
		if cls.Ambiguous {
			l.Ambiguous = append(l.Ambiguous, c.Ref)
		}
		p := board.Placement{
			Ref:       c.Ref,
			Footprint: c.Footprint,
			Kind:      string(cls.Kind),
			W:         c.Width,
			H:         c.Height,
			Cluster:   -1,
		}
		if ci, ok := owner[c.Ref]; ok && res.Placed[i] {
			p.Cluster = ci
			p.Placed = true
			p.X = res.Positions[i].X + half
			p.Y = res.Positions[i].Y + half
		}
		l.Components[i] = p
	}

	for ci, cl := range groups.Clusters {
		g := res.Groups[ci]
		at := res.Global.Positions[ci]
		l.Clusters[ci] = board.ClusterBox{
			Seed:           cl.Seed,
			Representative: g.Representative,
			Members:        cl.Members,
			X:              at.X,
			Y:              at.Y,
			W:              g.Size.W,
			H:              g.Size.H,
			Edge:           req.Edge[ci],
			Status:         g.Status.String(),
		}
	}

	for _, w := range req.Wires {
		if !res.Placed[w.Src] || !res.Placed[w.Dst] {
			continue
		}
		l.Wires = append(l.Wires, board.Segment{
			From: b.Components[w.Src].Ref,
			To:   b.Components[w.Dst].Ref,
			A:    res.Positions[w.Src].Add(w.SrcAt),
			B:    res.Positions[w.Dst].Add(w.DstAt),
		})
	}

	l.Stats = layoutStats(l, opts.Weights)
	return l
}

func layoutStats(l *board.Layout, wt pack.Weights) board.Stats {
	s := board.Stats{
		Components: len(l.Components),
		Clusters:   len(l.Clusters),
		Wires:      len(l.Wires),
		BoardArea:  l.Width * l.Height,
	}
	for _, c := range l.Components {
		if c.Placed {
			s.Placed++
			s.ComponentArea += c.W * c.H
		}
	}
	for _, w := range l.Wires {
		s.WireLength += w.Length()
	}
	if s.BoardArea > 0 {
		s.Utilization = s.ComponentArea / s.BoardArea
	}
	s.Objective = wt.Size*(l.Width+l.Height) + wt.Wire*s.WireLength
	return s
}

func nameOf(b *board.Board) string {
	if b.Name == "" {
		return "board"
	}
	return b.Name
}
