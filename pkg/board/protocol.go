package board

import (
	"context"
	"time"

	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
)

// PackRequest is the flat solver request used by `boardpack pack` and
// POST /v1/pack. Rects are [w, h] pairs and constraints are the per-rect
// edge flags.
type PackRequest struct {
	Rects       [][2]float64 `json:"rects"`
	Wires       []PackWire   `json:"wires"`
	Constraints []bool       `json:"constraints"`

	// Optional solver overrides.
	SizeWeight       *float64 `json:"size_weight,omitempty"`
	WireWeight       *float64 `json:"wire_weight,omitempty"`
	TimeLimitSeconds float64  `json:"time_limit_seconds,omitempty"`
}

// PackWire connects location_source on rect source with location_dest on
// rect dest.
type PackWire struct {
	Source         int        `json:"source"`
	Dest           int        `json:"dest"`
	LocationSource [2]float64 `json:"location_source"`
	LocationDest   [2]float64 `json:"location_dest"`
}

// PackResponse reports the outcome of a PackRequest. On success Positions
// holds one [x, y] pair per rect and Size the used [width, height].
type PackResponse struct {
	Success   bool         `json:"success"`
	Positions [][2]float64 `json:"positions,omitempty"`
	Size      *[2]float64  `json:"size,omitempty"`
	Objective float64      `json:"objective,omitempty"`
	Status    string       `json:"status,omitempty"`
	Message   string       `json:"message"`
	Error     string       `json:"error,omitempty"`
	Code      string       `json:"code,omitempty"`
	// TimeLimited marks a solve the deadline stopped early.
	TimeLimited bool `json:"time_limited,omitempty"`
}

// Problem converts the request into solver input.
func (r *PackRequest) Problem() pack.Problem {
	p := pack.Problem{
		Rects: make([]pack.Rect, len(r.Rects)),
		Wires: make([]pack.Wire, len(r.Wires)),
		Edge:  r.Constraints,
	}
	for i, wh := range r.Rects {
		p.Rects[i] = pack.Rect{W: wh[0], H: wh[1]}
	}
	for i, w := range r.Wires {
		p.Wires[i] = pack.Wire{
			Src:   w.Source,
			Dst:   w.Dest,
			SrcAt: pack.Point{X: w.LocationSource[0], Y: w.LocationSource[1]},
			DstAt: pack.Point{X: w.LocationDest[0], Y: w.LocationDest[1]},
		}
	}
	return p
}

// Apply layers the request overrides onto opts.
func (r *PackRequest) Apply(opts pack.Options) pack.Options {
	if opts.Weights.IsZero() {
		opts.Weights = pack.DefaultWeights()
	}
	if r.SizeWeight != nil {
		opts.Weights.Size = *r.SizeWeight
	}
	if r.WireWeight != nil {
		opts.Weights.Wire = *r.WireWeight
	}
	if r.TimeLimitSeconds > 0 {
		opts.TimeLimit = time.Duration(r.TimeLimitSeconds * float64(time.Second))
	}
	return opts
}

// Solve runs the request and always returns a response; failures are
// reported in it rather than as an error.
func (r *PackRequest) Solve(ctx context.Context, opts pack.Options) PackResponse {
	sol, err := pack.Pack(ctx, r.Problem(), r.Apply(opts))
	if err != nil {
		return FailedResponse(err)
	}
	resp := PackResponse{
		Success:   true,
		Positions: make([][2]float64, len(sol.Positions)),
		Size:      &[2]float64{sol.Width, sol.Height},
		Objective: sol.Objective,
		Status:    sol.Status.String(),
		Message:   "Packing completed successfully",

		TimeLimited: sol.TimeLimited,
	}
	for i, p := range sol.Positions {
		resp.Positions[i] = [2]float64{p.X, p.Y}
	}
	return resp
}

// FailedResponse wraps err in a response.
func FailedResponse(err error) PackResponse {
	return PackResponse{
		Success: false,
		Message: "Packing failed",
		Error:   errors.UserMessage(err),
		Code:    string(errors.GetCode(err)),
	}
}
