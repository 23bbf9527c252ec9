// Package pipeline provides the read → layout → render pipeline of singleline.
//
// The CLI and the HTTP server both go through this package so that a topology
// is laid out the same way whatever the entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Read: decode a topology document (voltage level, substation or zone)
//  2. Layout: apply position hints, run the layout engine and export the
//     result as a [graph.Layout]
//  3. Render: write the layout as JSON or SVG, or the raw topology as DOT
//
// Layouts and artifacts are cached under keys derived from the topology,
// the layout parameters, the hints and the merge strategy.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "substation.json",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	top, err := runner.Read(ctx, opts)
//	l, err := runner.ComputeLayout(ctx, top, opts)
//	artifacts, err := runner.Render(ctx, l, top, opts)
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/cache"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/layout/params"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Merge strategies for busbar clusters.
const (
	// StrategyAuto uses the busbar position hints of a voltage level when
	// every busbar has one, and the greedy link score otherwise.
	StrategyAuto = "auto"

	// StrategyGreedy always merges by link score, ignoring busbar hints.
	StrategyGreedy = "greedy"
)

// DefaultStrategy is the default merge strategy.
const DefaultStrategy = StrategyAuto

// Format constants for output formats.
const (
	FormatJSON   = "json"
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatPDF    = "pdf"
	FormatDOT    = "dot"
	FormatDOTSVG = "dot-svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:   true,
	FormatSVG:    true,
	FormatPNG:    true,
	FormatPDF:    true,
	FormatDOT:    true,
	FormatDOTSVG: true,
}

// ValidStrategies is the set of supported merge strategies.
var ValidStrategies = map[string]bool{
	StrategyAuto:   true,
	StrategyGreedy: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Read options. Topology wins over Input.
	Input    string          `json:"-"`
	Topology *graph.Topology `json:"topology,omitempty"`

	// Layout options. Params and Hints win over their paths.
	ParamsPath string             `json:"-"`
	Params     *params.Parameters `json:"params,omitempty"`
	HintsPath  string             `json:"-"`
	Hints      *sldio.Hints       `json:"hints,omitempty"`
	Strategy   string             `json:"strategy,omitempty"`
	Refresh    bool               `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Labels   bool     `json:"labels,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Topology is the decoded input.
	Topology graph.Topology

	// TopologyHash is the content hash of the topology.
	TopologyHash string

	// Layout is the exported layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	VoltageLevels int
	NodeCount     int
	EdgeCount     int
	ReadTime      time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, svg, png, pdf, dot, dot-svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks that a merge strategy is valid.
func ValidateStrategy(strategy string) error {
	if !ValidStrategies[strategy] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid strategy: %q (must be one of: auto, greedy)", strategy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForRead checks that a topology source is set.
func (o *Options) ValidateForRead() error {
	if o.Topology == nil && o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "topology or input path is required")
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if o.Params != nil {
		if err := o.Params.Validate(); err != nil {
			return err
		}
	}
	if o.Hints != nil {
		return o.Hints.Validate()
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// ResolveParams returns the layout parameters: Params, else the file at
// ParamsPath, else the defaults.
func (o *Options) ResolveParams() (params.Parameters, error) {
	switch {
	case o.Params != nil:
		return *o.Params, nil
	case o.ParamsPath != "":
		return params.LoadFile(o.ParamsPath)
	default:
		return params.Default(), nil
	}
}

// ResolveHints returns the position hints: Hints, else the sidecar at
// HintsPath, else none.
func (o *Options) ResolveHints() (sldio.Hints, error) {
	switch {
	case o.Hints != nil:
		return *o.Hints, nil
	case o.HintsPath != "":
		return sldio.LoadHints(o.HintsPath)
	default:
		return sldio.Hints{}, nil
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(scope string, p params.Parameters, h sldio.Hints) cache.LayoutKeyOpts {
	opts := cache.LayoutKeyOpts{Scope: scope, Strategy: o.Strategy}
	if data, err := json.Marshal(p); err == nil {
		opts.ParamsHash = cache.Hash(data)
	}
	if h.Len() > 0 {
		if data, err := json.Marshal(h); err == nil {
			opts.HintsHash = cache.Hash(data)
		}
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Labels: o.Labels, Detailed: o.Detailed}
}
