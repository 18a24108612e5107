package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/observability"
	"github.com/matzehuels/boardpack/pkg/pack"
	"github.com/matzehuels/boardpack/pkg/render"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute lays out b and renders opts.Formats.
func (r *Runner) Execute(ctx context.Context, b *board.Board, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, b.Name, len(b.Components))
	l, hit, hash, err := r.layout(ctx, b, opts)
	observability.Pipeline().OnLayoutComplete(ctx, b.Name, layoutClusters(l), time.Since(layoutStart), err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.RunID = l.RunID
	result.BoardHash = hash
	result.CacheInfo.LayoutHit = hit
	result.Stats.Components = len(l.Components)
	result.Stats.Clusters = len(l.Clusters)
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Info("computed layout",
		"board", l.Board,
		"clusters", len(l.Clusters),
		"size", fmt.Sprintf("%.2fx%.2f", l.Width, l.Height),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Layout places b, reading and writing the cache.
func (r *Runner) Layout(ctx context.Context, b *board.Board, opts Options) (*board.Layout, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	l, hit, _, err := r.layout(ctx, b, opts)
	return l, hit, err
}

// layout expects defaulted options and also returns the board hash.
func (r *Runner) layout(ctx context.Context, b *board.Board, opts Options) (*board.Layout, bool, string, error) {
	if err := b.Validate(); err != nil {
		return nil, false, "", err
	}
	hash, err := cache.HashJSON(b)
	if err != nil {
		return nil, false, "", err
	}
	key := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := board.ReadLayout(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, hash, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l, err := GenerateLayout(ctx, b, opts)
	if err != nil {
		return nil, false, hash, err
	}
	l.RunID = uuid.NewString()

	// A search the deadline stopped early is not reproducible.
	if !l.TimeLimited {
		r.store(ctx, "layout", key, l, cache.TTLLayout)
	}
	return l, false, hash, nil
}

// RenderWithCacheInfo renders opts.Formats, serving each format from the
// cache when possible. The bool is true when every format was cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *board.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutHash, err := cache.HashJSON(l)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := render.Render(ctx, l, format, opts.Render)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, allCached, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, l *board.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Pack answers a flat pack request. Successful optimal answers are cached.
func (r *Runner) Pack(ctx context.Context, req board.PackRequest, defaults pack.Options) board.PackResponse {
	if defaults.Logger == nil {
		defaults.Logger = r.Logger
	}
	opts := req.Apply(defaults)
	opts.SetDefaults()

	hash, err := cache.HashJSON(req)
	if err != nil {
		return board.FailedResponse(err)
	}
	key := r.Keyer.PackKey(hash, cache.PackKeyOpts{
		SizeWeight: opts.Weights.Size,
		WireWeight: opts.Weights.Wire,
		TimeLimit:  opts.TimeLimit,
		MaxNodes:   opts.MaxNodes,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var resp board.PackResponse
		if json.Unmarshal(data, &resp) == nil {
			observability.Cache().OnCacheHit(ctx, "pack")
			return resp
		}
	}
	observability.Cache().OnCacheMiss(ctx, "pack")

	start := time.Now()
	resp := req.Solve(ctx, opts)
	observability.Solver().OnSolve(ctx, "pack", len(req.Rects), resp.Status, 0, time.Since(start), packErr(resp))
	if resp.Success && !resp.TimeLimited {
		r.store(ctx, "pack", key, resp, cache.TTLPack)
	}
	return resp
}

func packErr(resp board.PackResponse) error {
	if resp.Success {
		return nil
	}
	return fmt.Errorf("%s: %s", resp.Code, resp.Error)
}

// store encodes v and writes it; cache failures are logged, never returned.
func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("cache encode failed", "type", keyType, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func layoutClusters(l *board.Layout) int {
	if l == nil {
		return 0
	}
	return len(l.Clusters)
}
