// Package pipeline runs boardpack end to end.
//
// The CLI and the HTTP service share this package, so both apply the same
// defaults, caching and logging.
//
// # Stages
//
//  1. Load: read and validate the board file (JSON or TOML)
//  2. Layout: classify components, build the connectivity graph, form
//     clusters, and compose the two-pass placement
//  3. Render: produce the requested artifacts (SVG, PDF, XLSX, JSON)
//
// Layouts are cached by board content hash and every option that changes
// the placement; artifacts are cached by layout hash and format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	b, _, err := pipeline.Load("sensor-node.toml")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, b, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/classify"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/config"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
	"github.com/matzehuels/boardpack/pkg/render"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. Zero fields take the package defaults.
type Options struct {
	// Solver
	Weights   pack.Weights  `json:"weights"`
	TimeLimit time.Duration `json:"time_limit,omitempty"`
	MaxNodes  int           `json:"max_nodes,omitempty"`
	Workers   int           `json:"workers,omitempty"`

	// Clustering and board preparation
	Orphans      cluster.OrphanPolicy `json:"orphans,omitempty"`
	Padding      float64              `json:"padding,omitempty"`
	EdgePatterns []string             `json:"edge_patterns,omitempty"`
	Rules        []classify.Rule      `json:"rules,omitempty"`

	// Render
	Formats []string       `json:"formats,omitempty"`
	Render  render.Options `json:"render"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	// OnCluster, if set, is called after each cluster has been placed.
	OnCluster func(done, total int) `json:"-"`
}

// FromConfig maps a configuration file onto run options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Weights:      cfg.Weights(),
		TimeLimit:    cfg.TimeLimit(),
		MaxNodes:     cfg.Solver.MaxNodes,
		Workers:      cfg.Compose.Workers,
		Orphans:      cfg.Cluster.Orphans,
		Padding:      cfg.Board.Padding,
		EdgePatterns: cfg.Edge.Patterns,
		Rules:        cfg.Classifier.Rules,
	}
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Weights.IsZero() {
		o.Weights = pack.DefaultWeights()
	}
	if o.TimeLimit <= 0 {
		o.TimeLimit = pack.DefaultTimeLimit
	}
	if o.Orphans == "" {
		o.Orphans = cluster.OrphanDrop
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option ranges and formats.
func (o *Options) Validate() error {
	if err := o.Weights.Validate(); err != nil {
		return err
	}
	if o.MaxNodes < 0 || o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_nodes and workers must not be negative")
	}
	if !o.Orphans.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown orphan policy %q", o.Orphans)
	}
	if o.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// ValidateFormats checks every format against render.Formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SolverOptions returns the options handed to every solve.
func (o *Options) SolverOptions() pack.Options {
	return pack.Options{
		Weights:   o.Weights,
		TimeLimit: o.TimeLimit,
		MaxNodes:  o.MaxNodes,
		Logger:    o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		SizeWeight: o.Weights.Size,
		WireWeight: o.Weights.Wire,
		TimeLimit:  o.TimeLimit,
		MaxNodes:   o.MaxNodes,
		Orphans:    string(o.Orphans),
		Padding:    o.Padding,
		Edge:       slices.Clone(o.EdgePatterns),
	}
	if len(o.Rules) > 0 {
		k.Rules, _ = cache.HashJSON(o.Rules)
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Scale:    o.Render.Scale,
		Wires:    !o.Render.HideWires,
		Clusters: !o.Render.HideClusters,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result is the output of Execute.
type Result struct {
	RunID     string
	BoardHash string
	Layout    *board.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds stage timings.
type Stats struct {
	Components int
	Clusters   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

func (r *Result) String() string {
	return fmt.Sprintf("run %s: %d components in %d clusters, %.2fx%.2f %s",
		r.RunID, r.Stats.Components, r.Stats.Clusters, r.Layout.Width, r.Layout.Height, r.Layout.Units)
}
