package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// Scenario is a named set of objective weights.
type Scenario struct {
	Name    string       `json:"name" toml:"name"`
	Weights pack.Weights `json:"weights" toml:"weights"`
}

// Presets are the scenarios compared when none are given.
var Presets = []Scenario{
	{Name: "balanced", Weights: pack.DefaultWeights()},
	{Name: "compact", Weights: pack.Weights{Size: 4, Wire: 1}},
	{Name: "short-wires", Weights: pack.Weights{Size: 1, Wire: 8}},
}

// Comparison is the outcome of one scenario.
type Comparison struct {
	Scenario Scenario      `json:"scenario"`
	Layout   *board.Layout `json:"layout"`
	Cached   bool          `json:"cached"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Area returns the bounding box area.
func (c Comparison) Area() float64 { return c.Layout.Width * c.Layout.Height }

// Compare lays out b once per scenario, overriding opts.Weights. Scenarios
// run one after another because each composition is already parallel.
func (r *Runner) Compare(ctx context.Context, b *board.Board, scenarios []Scenario, opts Options) ([]Comparison, error) {
	if len(scenarios) == 0 {
		scenarios = Presets
	}
	out := make([]Comparison, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Weights.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		run := opts
		run.Weights = sc.Weights
		start := time.Now()
		l, hit, err := r.Layout(ctx, b, run)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		out = append(out, Comparison{Scenario: sc, Layout: l, Cached: hit, Elapsed: time.Since(start)})
		r.Logger.Debug("scenario done", "name", sc.Name, "width", l.Width, "height", l.Height, "wire_length", l.Stats.WireLength)
	}
	return out, nil
}

// Best returns the comparison with the smallest area, ties broken by wire
// length, or -1 for an empty slice.
func Best(cs []Comparison) int {
	best := -1
	for i, c := range cs {
		if best < 0 || c.Area() < cs[best].Area()-pack.Tolerance ||
			(c.Area() <= cs[best].Area()+pack.Tolerance && c.Layout.Stats.WireLength < cs[best].Layout.Stats.WireLength) {
			best = i
		}
	}
	return best
}
