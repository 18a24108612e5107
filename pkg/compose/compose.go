// Package compose places a board in two passes.
//
// Pass 1 packs every cluster on its own, using only the wires inside it.
// Pass 2 treats each packed cluster as one rectangle of its exact extents and
// packs those, using only the wires between clusters. A component ends up at
// its cluster's offset plus its position inside the cluster, so the global
// placement cannot overlap when both passes are overlap-free.
package compose

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/observability"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// Request describes a clustered board. Components are addressed by index
// into Rects; Clusters lists member indices.
type Request struct {
	Rects []pack.Rect `json:"rects"`
	// Names labels components; empty or one per rect.
	Names    []string    `json:"names,omitempty"`
	Wires    []pack.Wire `json:"wires,omitempty"`
	Clusters [][]int     `json:"clusters"`
	// Edge holds one flag per cluster.
	Edge []bool `json:"edge"`
}

// Options tunes Compose.
type Options struct {
	// Solver is used for both passes. Its Progress callback is not
	// forwarded because clusters are solved concurrently.
	Solver pack.Options

	// Workers bounds concurrent pass-1 solves. Zero means GOMAXPROCS.
	Workers int

	Logger *log.Logger

	// OnGroup, if set, is called from the worker goroutine after each
	// cluster has been placed.
	OnGroup func(index int, g GroupResult)
}

// GroupResult is the pass-1 outcome for one cluster.
type GroupResult struct {
	Members []int        `json:"members"`
	Local   []pack.Point `json:"local"`
	Size    pack.Rect    `json:"size"`
	// Representative names the largest member.
	Representative string        `json:"representative,omitempty"`
	Status         pack.Status   `json:"status"`
	Elapsed        time.Duration `json:"elapsed"`
	TimeLimited    bool          `json:"time_limited,omitempty"`
}

// Result is a composed placement.
type Result struct {
	// Positions holds one bottom-left corner per input rect. Entries for
	// rects outside every cluster are zero and marked in Placed.
	Positions []pack.Point   `json:"positions"`
	Placed    []bool         `json:"placed"`
	Groups    []GroupResult  `json:"groups"`
	Global    *pack.Solution `json:"global"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Degraded  bool           `json:"degraded"`
	// TimeLimited is set when a deadline stopped any solve. Degraded
	// results without it came from the node budget and are reproducible.
	TimeLimited bool `json:"time_limited,omitempty"`
}

// Compose runs both passes. Any solver error aborts the whole call.
func Compose(ctx context.Context, req Request, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	owner, err := req.validate()
	if err != nil {
		return nil, err
	}

	solver := opts.Solver
	solver.Progress = nil
	if solver.Logger == nil {
		solver.Logger = opts.Logger
	}

	groups, err := placeClusters(ctx, req, owner, solver, opts)
	if err != nil {
		return nil, err
	}

	global, err := placeGlobal(ctx, req, owner, groups, solver)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Positions: make([]pack.Point, len(req.Rects)),
		Placed:    make([]bool, len(req.Rects)),
		Groups:    groups,
		Global:    global,
		Width:     global.Width,
		Height:    global.Height,
		Degraded:  global.Degraded(),

		TimeLimited: global.TimeLimited,
	}
	for ci, g := range groups {
		offset := global.Positions[ci]
		for k, i := range g.Members {
			res.Positions[i] = offset.Add(g.Local[k])
			res.Placed[i] = true
		}
		if g.Status != pack.StatusOptimal {
			res.Degraded = true
		}
		res.TimeLimited = res.TimeLimited || g.TimeLimited
	}

	opts.Logger.Debug("composed",
		"clusters", len(groups),
		"width", res.Width,
		"height", res.Height,
		"degraded", res.Degraded,
	)
	return res, nil
}

// placeClusters runs pass 1. Each goroutine writes only its own slot.
func placeClusters(ctx context.Context, req Request, owner []int, solver pack.Options, opts Options) ([]GroupResult, error) {
	groups := make([]GroupResult, len(req.Clusters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for ci, members := range req.Clusters {
		g.Go(func() error {
			gr, err := placeCluster(gctx, req, owner, ci, members, solver)
			if err != nil {
				return err
			}
			groups[ci] = gr
			if opts.OnGroup != nil {
				opts.OnGroup(ci, gr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

func placeCluster(ctx context.Context, req Request, owner []int, ci int, members []int, solver pack.Options) (GroupResult, error) {
	gr := GroupResult{
		Members:        members,
		Representative: representative(req, members),
	}

	if len(members) == 1 {
		gr.Local = []pack.Point{{}}
		gr.Size = req.Rects[members[0]]
		gr.Status = pack.StatusOptimal
		return gr, nil
	}

	local := make(map[int]int, len(members))
	p := pack.Problem{
		Rects: make([]pack.Rect, len(members)),
		Edge:  make([]bool, len(members)),
	}
	for k, i := range members {
		local[i] = k
		p.Rects[k] = req.Rects[i]
	}
	for _, w := range req.Wires {
		if owner[w.Src] != ci || owner[w.Dst] != ci {
			continue
		}
		p.Wires = append(p.Wires, pack.Wire{
			Src: local[w.Src], Dst: local[w.Dst], SrcAt: w.SrcAt, DstAt: w.DstAt,
		})
	}

	start := time.Now()
	sol, err := pack.Pack(ctx, p, solver)
	reportSolve(ctx, "cluster", len(p.Rects), sol, time.Since(start), err)
	if err != nil {
		return GroupResult{}, wrapPass(err, "cluster %d (%s)", ci, gr.Representative)
	}
	gr.Local = sol.Positions
	gr.Size = sol.Size()
	gr.Status = sol.Status
	gr.Elapsed = sol.Elapsed
	gr.TimeLimited = sol.TimeLimited

	solver.Logger.Debug("cluster placed",
		"cluster", ci,
		"members", len(members),
		"wires", len(p.Wires),
		"status", sol.Status,
		"elapsed", sol.Elapsed,
	)
	return gr, nil
}

// placeGlobal runs pass 2 over the cluster boxes.
func placeGlobal(ctx context.Context, req Request, owner []int, groups []GroupResult, solver pack.Options) (*pack.Solution, error) {
	at := make([]pack.Point, len(req.Rects))
	for _, g := range groups {
		for k, i := range g.Members {
			at[i] = g.Local[k]
		}
	}

	p := pack.Problem{
		Rects: make([]pack.Rect, len(groups)),
		Edge:  req.Edge,
	}
	for ci, g := range groups {
		p.Rects[ci] = g.Size
	}
	for _, w := range req.Wires {
		cs, cd := owner[w.Src], owner[w.Dst]
		if cs < 0 || cd < 0 || cs == cd {
			continue
		}
		p.Wires = append(p.Wires, pack.Wire{
			Src:   cs,
			Dst:   cd,
			SrcAt: at[w.Src].Add(w.SrcAt),
			DstAt: at[w.Dst].Add(w.DstAt),
		})
	}

	start := time.Now()
	sol, err := pack.Pack(ctx, p, solver)
	reportSolve(ctx, "global", len(p.Rects), sol, time.Since(start), err)
	if err != nil {
		return nil, wrapPass(err, "global placement of %d clusters", len(groups))
	}
	return sol, nil
}

func reportSolve(ctx context.Context, pass string, rects int, sol *pack.Solution, d time.Duration, err error) {
	var status string
	var nodes int
	if sol != nil {
		status, nodes = sol.Status.String(), sol.Nodes
	}
	observability.Solver().OnSolve(ctx, pass, rects, status, nodes, d, err)
}

// wrapPass keeps context errors unwrapped and prefixes the rest.
func wrapPass(err error, format string, args ...any) error {
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.GetCode(err) == "" {
		return fmt.Errorf(format+": %w", append(args, err)...)
	}
	return errors.Wrap(errors.GetCode(err), err, format, args...)
}

func representative(req Request, members []int) string {
	if len(req.Names) == 0 {
		return ""
	}
	best := members[0]
	for _, i := range members[1:] {
		if req.Rects[i].Area() > req.Rects[best].Area() {
			best = i
		}
	}
	return req.Names[best]
}

// validate checks the request and returns the owning cluster of every rect,
// -1 for unclustered ones.
func (req Request) validate() ([]int, error) {
	if len(req.Edge) != len(req.Clusters) {
		return nil, errors.New(errors.ErrCodeInvalidModel,
			"got %d clusters but %d edge flags", len(req.Clusters), len(req.Edge))
	}
	if len(req.Names) != 0 && len(req.Names) != len(req.Rects) {
		return nil, errors.New(errors.ErrCodeInvalidModel,
			"got %d rects but %d names", len(req.Rects), len(req.Names))
	}
	for i, r := range req.Rects {
		if !(r.W > 0) || !(r.H > 0) {
			return nil, errors.New(errors.ErrCodeInvalidModel, "rect %d has invalid size %gx%g", i, r.W, r.H)
		}
	}

	owner := make([]int, len(req.Rects))
	for i := range owner {
		owner[i] = -1
	}
	for ci, members := range req.Clusters {
		if len(members) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidModel, "cluster %d is empty", ci)
		}
		for _, i := range members {
			if i < 0 || i >= len(req.Rects) {
				return nil, errors.New(errors.ErrCodeInvalidModel,
					"cluster %d references rect %d, have %d rects", ci, i, len(req.Rects))
			}
			if owner[i] >= 0 {
				return nil, errors.New(errors.ErrCodeInvalidModel,
					"rect %d is in clusters %d and %d", i, owner[i], ci)
			}
			owner[i] = ci
		}
	}
	for k, w := range req.Wires {
		if w.Src < 0 || w.Src >= len(req.Rects) || w.Dst < 0 || w.Dst >= len(req.Rects) {
			return nil, errors.New(errors.ErrCodeInvalidModel,
				"wire %d references rect %d->%d, have %d rects", k, w.Src, w.Dst, len(req.Rects))
		}
	}
	return owner, nil
}
