// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks; main decides where
// they go. The defaults are no-ops, and [LogHooks] forwards everything to a
// charmbracelet logger.
//
// # Usage
//
// Register hooks at startup:
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(hooks)
//	observability.SetSolverHooks(hooks)
//
// Libraries call them around work:
//
//	observability.Pipeline().OnLayoutStart(ctx, board, components)
//	// ... compose ...
//	observability.Pipeline().OnLayoutComplete(ctx, board, clusters, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the layout pipeline.
type PipelineHooks interface {
	OnLayoutStart(ctx context.Context, board string, components int)
	OnLayoutComplete(ctx context.Context, board string, clusters int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Solver Hooks
// =============================================================================

// SolverHooks receives one event per placement solve.
type SolverHooks interface {
	// OnSolve reports a finished solve. Pass is "cluster" or "global".
	OnSolve(ctx context.Context, pass string, rects int, status string, nodes int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP service.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSolve(context.Context, string, int, string, int, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// registry holds the active hooks. One lock guards all four slots.
var registry = struct {
	sync.RWMutex
	pipeline PipelineHooks
	solver   SolverHooks
	cache    CacheHooks
	http     HTTPHooks
}{
	pipeline: NoopPipelineHooks{},
	solver:   NoopSolverHooks{},
	cache:    NoopCacheHooks{},
	http:     NoopHTTPHooks{},
}

// set stores h in slot unless h is nil.
func set[T any](slot *T, h T) {
	if any(h) == nil {
		return
	}
	registry.Lock()
	*slot = h
	registry.Unlock()
}

// get reads slot under the read lock.
func get[T any](slot *T) T {
	registry.RLock()
	defer registry.RUnlock()
	return *slot
}

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) { set(&registry.pipeline, h) }

// SetSolverHooks registers solver hooks. Nil is ignored.
func SetSolverHooks(h SolverHooks) { set(&registry.solver, h) }

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) { set(&registry.cache, h) }

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) { set(&registry.http, h) }

func Pipeline() PipelineHooks { return get(&registry.pipeline) }
func Solver() SolverHooks     { return get(&registry.solver) }
func Cache() CacheHooks       { return get(&registry.cache) }
func HTTP() HTTPHooks         { return get(&registry.http) }

// Reset restores the no-op hooks.
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.pipeline = NoopPipelineHooks{}
	registry.solver = NoopSolverHooks{}
	registry.cache = NoopCacheHooks{}
	registry.http = NoopHTTPHooks{}
}
