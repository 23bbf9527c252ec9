// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about pipeline runs, layout stages, cache operations and
// served HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the layout engine
// stays free of any observability framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetLayoutHooks(&myStageTimer{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, "substation", nodeCount)
//	// ... lay out ...
//	observability.Pipeline().OnLayoutComplete(ctx, "substation", duration, err)
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
	// Read events
	OnReadStart(ctx context.Context, source string)
	OnReadComplete(ctx context.Context, source, scope string, nodeCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, scope string, nodeCount int)
	OnLayoutComplete(ctx context.Context, scope string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// Stage names a step of the voltage-level layout.
type Stage string

// Layout stages, in execution order.
const (
	StageRefine    Stage = "refine"
	StageDetect    Stage = "detect"
	StageDecompose Stage = "decompose"
	StagePosition  Stage = "position"
	StageCoord     Stage = "coord"
	StageRoute     Stage = "route"
)

// LayoutHooks receives events from the layout engine. Layout runs are
// synchronous CPU work, so the hooks carry no context.
type LayoutHooks interface {
	// OnStage records the duration of one stage for one voltage level, or
	// for one substation or zone when stage is StageRoute.
	OnStage(id string, stage Stage, duration time.Duration)

	// OnSkipped records a line or transformer left out of the routing.
	OnSkipped(id, edge string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnReadStart(context.Context, string) {}
func (NoopPipelineHooks) OnReadComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnStage(string, Stage, time.Duration) {}
func (NoopLayoutHooks) OnSkipped(string, string, error)      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook implementation and its no-op default.
type slot[T any] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func newSlot[T any](noop T) *slot[T] { return &slot[T]{cur: noop, noop: noop} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set installs h. A nil h leaves the current hooks in place.
func (s *slot[T]) set(h T, isNil bool) {
	if isNil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = h
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = s.noop
}

var (
	pipelineHooks = newSlot[PipelineHooks](NoopPipelineHooks{})
	layoutHooks   = newSlot[LayoutHooks](NoopLayoutHooks{})
	cacheHooks    = newSlot[CacheHooks](NoopCacheHooks{})
	httpHooks     = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetPipelineHooks registers pipeline hooks. Call it at startup, before the
// first pipeline run.
func SetPipelineHooks(h PipelineHooks) { pipelineHooks.set(h, h == nil) }

// SetLayoutHooks registers layout stage hooks.
func SetLayoutHooks(h LayoutHooks) { layoutHooks.set(h, h == nil) }

// SetCacheHooks registers cache hooks.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h, h == nil) }

// SetHTTPHooks registers hooks for the HTTP API.
func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h, h == nil) }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return pipelineHooks.get() }

// Layout returns the registered layout hooks.
func Layout() LayoutHooks { return layoutHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Reset restores every hook to its no-op default. Tests use it to undo
// registrations.
func Reset() {
	pipelineHooks.reset()
	layoutHooks.reset()
	cacheHooks.reset()
	httpHooks.reset()
}
