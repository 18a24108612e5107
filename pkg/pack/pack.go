package pack

import (
	"context"
	stdErrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardpack/pkg/errors"
)

// Progress is a periodic snapshot of a running search.
type Progress struct {
	Explored int
	Pruned   int
	// Best is the incumbent objective in board units, zero before the first.
	Best float64
}

// Options tunes [Pack]. The zero value uses the default weights and time
// limit with no node budget.
type Options struct {
	Weights Weights

	// TimeLimit caps the search. A context deadline that expires earlier
	// wins. Both degrade the result to StatusFeasible instead of failing.
	TimeLimit time.Duration

	// MaxNodes caps the number of explored nodes. Unlike a time limit, it
	// makes truncated searches reproducible.
	MaxNodes int

	Logger   *log.Logger
	Progress func(Progress)
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Weights.IsZero() {
		o.Weights = DefaultWeights()
	}
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Pack computes a non-overlapping placement of p.Rects that minimises the
// weighted sum of bounding-box perimeter and Manhattan wire length while
// keeping every edge-constrained rectangle on the bounding box.
func Pack(ctx context.Context, p Problem, opts Options) (*Solution, error) {
	opts.SetDefaults()
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil && !stdErrors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	start := time.Now()
	m := newModel(p, opts.Weights)

	if m.n <= 1 {
		sol := m.solution(p, make([]int64, m.n), make([]int64, m.n))
		sol.Status = StatusOptimal
		sol.Elapsed = time.Since(start)
		return sol, nil
	}

	s := &search{
		m:        m,
		opts:     opts,
		deadline: start.Add(opts.TimeLimit),
		logger:   opts.Logger,
	}
	if d, ok := ctx.Deadline(); ok && d.Before(s.deadline) {
		s.deadline = d
	}

	opts.Logger.Debug("packing", "rects", m.n, "wires", m.wires, "limit", opts.TimeLimit)
	for _, seed := range s.seeds() {
		s.offer(seed)
	}

	exhausted, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if !s.haveBest {
		return nil, errors.New(errors.ErrCodeInfeasibleLayout,
			"no placement of %d rects satisfies the edge constraints", m.n)
	}

	sol := m.solution(p, s.best.x, s.best.y)
	sol.Status = StatusFeasible
	if s.proven(exhausted) {
		sol.Status = StatusOptimal
	}
	sol.TimeLimited = s.timedOut
	sol.Nodes = s.explored
	sol.Elapsed = time.Since(start)

	opts.Logger.Debug("packed",
		"status", sol.Status,
		"objective", sol.Objective,
		"nodes", s.explored,
		"pruned", s.pruned,
		"lp", s.lpSolves,
		"lp_fallbacks", s.fallbacks,
		"gaps", s.gaps,
		"elapsed", sol.Elapsed,
	)
	return sol, nil
}
