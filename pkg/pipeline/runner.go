package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/singleline/pkg/cache"
	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger: it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete read → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	if opts.Logger == nil {
		opts.Logger = r.Logger.With("run", result.RunID)
	}
	if err := opts.ValidateForRead(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	// Stage 1: Read
	readStart := time.Now()
	t, err := r.Read(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	result.Topology = t
	result.Stats.ReadTime = time.Since(readStart)
	result.Stats.VoltageLevels, result.Stats.NodeCount, result.Stats.EdgeCount = count(t)
	if data, err := graph.MarshalTopology(t); err == nil {
		result.TopologyHash = cache.Hash(data)
	}
	logger.Info("read topology",
		"scope", t.Scope(),
		"id", t.ID(),
		"voltage_levels", result.Stats.VoltageLevels,
		"nodes", result.Stats.NodeCount,
		"duration", result.Stats.ReadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	logger.Info("computed layout",
		"width", l.Width,
		"height", l.Height,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, t, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit
	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Read decodes the topology of opts: the inline Topology, else the file at
// Input.
func (r *Runner) Read(ctx context.Context, opts Options) (t graph.Topology, err error) {
	if err := opts.ValidateForRead(); err != nil {
		return graph.Topology{}, err
	}
	source := opts.Input
	if opts.Topology != nil {
		source = "inline"
	}

	hooks := observability.Pipeline()
	hooks.OnReadStart(ctx, source)
	start := time.Now()
	defer func() {
		_, nodes, _ := count(t)
		hooks.OnReadComplete(ctx, source, t.Scope(), nodes, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return graph.Topology{}, err
	}
	if opts.Topology != nil {
		if err := opts.Topology.Validate(); err != nil {
			return graph.Topology{}, err
		}
		return *opts.Topology, nil
	}
	return graph.ReadTopologyFile(opts.Input)
}

// ComputeLayoutWithCacheInfo lays out t with caching and returns cache hit
// info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t graph.Topology, opts Options) (l graph.Layout, hit bool, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)

	p, err := opts.ResolveParams()
	if err != nil {
		return graph.Layout{}, false, err
	}
	h, err := opts.ResolveHints()
	if err != nil {
		return graph.Layout{}, false, err
	}

	// Compute cache key
	topologyData, err := graph.MarshalTopology(t)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize topology for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(topologyData), opts.LayoutKeyOpts(t.Scope(), p, h))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok := r.get(ctx, cacheKey); ok {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	in, err := Convert(t)
	if err != nil {
		return graph.Layout{}, false, err
	}
	_, nodes, _ := count(t)

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, in.Scope, nodes)
	start := time.Now()
	l, err = GenerateLayout(in, p, h, opts.Strategy, opts.Logger)
	hooks.OnLayoutComplete(ctx, in.Scope, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		r.set(ctx, cacheKey, data, cache.TTLLayout)
	}
	return l, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo
// and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, t graph.Topology, opts Options) (graph.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, t graph.Topology, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Layout formats are keyed by the layout, DOT formats by the topology.
	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	topologyHash := ""
	if data, err := graph.MarshalTopology(t); err == nil {
		topologyHash = cache.Hash(data)
	}
	key := func(format string) string {
		if format == FormatDOT || format == FormatDOTSVG {
			return r.Keyer.ArtifactKey(topologyHash, opts.ArtifactKeyOpts(format))
		}
		return r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if data, ok := r.get(ctx, key(format)); ok && !opts.Refresh {
			artifacts[format] = data
			continue
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	ropts := opts
	ropts.Formats = missing
	rendered, err := Render(l, t, ropts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.set(ctx, key(format), data, cache.TTLArtifact)
		artifacts[format] = data
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, t graph.Topology, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, t, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads key from the cache, treating backend errors as misses.
func (r *Runner) get(ctx context.Context, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

func (r *Runner) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// count returns the number of voltage levels, nodes and edges of t.
func count(t graph.Topology) (vls, nodes, edges int) {
	add := func(g graph.Graph) {
		vls++
		nodes += len(g.Nodes)
		edges += len(g.Edges)
	}
	switch {
	case t.VoltageLevel != nil:
		add(*t.VoltageLevel)
	case t.Substation != nil:
		for _, g := range t.Substation.VoltageLevels {
			add(g)
		}
	case t.Zone != nil:
		for _, s := range t.Zone.Substations {
			for _, g := range s.VoltageLevels {
				add(g)
			}
		}
	}
	return vls, nodes, edges
}
