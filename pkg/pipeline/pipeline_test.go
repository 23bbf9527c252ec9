package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/cache"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	sldio "github.com/matzehuels/singleline/pkg/io"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/layout/position"
)

func feederTopology() *graph.Topology {
	g := graph.FromGraph(testgraph.FeederCell().G)
	return &graph.Topology{VoltageLevel: &g}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"dot-svg", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Invalid format should fail with INVALID_INPUT, got %v", err)
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    position.MergeStrategy
		wantErr bool
	}{
		{"", nil, false},
		{"auto", nil, false},
		{"greedy", position.Greedy{}, false},
		{"hints", nil, true},
	}
	for _, tt := range tests {
		got, err := Strategy(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Strategy(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestOptionsValidateForRead(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRead(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Missing input should fail: %v", err)
	}

	opts = Options{Input: "vl.json"}
	if err := opts.ValidateForRead(); err != nil {
		t.Errorf("Input path should pass: %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger default not set")
	}
}

func TestOptionsValidateForLayout(t *testing.T) {
	opts := Options{Strategy: "random"}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("Unknown strategy should fail")
	}

	bad := params.Default()
	bad.CellWidth = 0
	opts = Options{Params: &bad}
	if err := opts.ValidateForLayout(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Invalid params should fail: %v", err)
	}

	opts = Options{Hints: &sldio.Hints{Feeders: []sldio.FeederHint{{VoltageLevel: "vl", Node: "x", Direction: "left"}}}}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("Invalid hints should fail")
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy should be %s, got %s", DefaultStrategy, opts.Strategy)
	}
	if opts.Logger == nil {
		t.Error("Logger default not set")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
}

func TestResolveParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(path, []byte("cell_width = 60\n"), 0644); err != nil {
		t.Fatal(err)
	}
	inline := params.Default()
	inline.CellWidth = 70

	tests := []struct {
		name string
		opts Options
		want float64
	}{
		{"Default", Options{}, params.Default().CellWidth},
		{"File", Options{ParamsPath: path}, 60},
		{"InlineWins", Options{ParamsPath: path, Params: &inline}, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.opts.ResolveParams()
			if err != nil {
				t.Fatalf("ResolveParams: %v", err)
			}
			if p.CellWidth != tt.want {
				t.Errorf("CellWidth = %v, want %v", p.CellWidth, tt.want)
			}
		})
	}

	opts := Options{ParamsPath: filepath.Join(t.TempDir(), "missing.toml")}
	if _, err := opts.ResolveParams(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	opts := Options{Strategy: StrategyAuto}
	p := params.Default()

	base := opts.LayoutKeyOpts(graph.ScopeVoltageLevel, p, sldio.Hints{})
	if base.ParamsHash == "" || base.HintsHash != "" {
		t.Errorf("base key opts = %+v", base)
	}

	h := sldio.Hints{Buses: []sldio.BusHint{{VoltageLevel: "vl", Node: "bbs", Busbar: 1}}}
	if got := opts.LayoutKeyOpts(graph.ScopeVoltageLevel, p, h); got.HintsHash == "" {
		t.Error("hints not hashed")
	}

	p.CellWidth++
	if got := opts.LayoutKeyOpts(graph.ScopeVoltageLevel, p, sldio.Hints{}); got.ParamsHash == base.ParamsHash {
		t.Error("params change kept the hash")
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache(0)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(mem, nil, nil)
	defer r.Close()

	opts := Options{Topology: feederTopology(), Formats: []string{FormatJSON, FormatSVG, FormatDOT}}
	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}
	if first.RunID == "" || first.TopologyHash == "" {
		t.Errorf("run id %q, hash %q", first.RunID, first.TopologyHash)
	}
	if first.Stats.VoltageLevels != 1 || first.Stats.NodeCount != 4 || first.Stats.EdgeCount != 3 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if first.Layout.Scope != graph.ScopeVoltageLevel || first.Layout.Width <= 0 {
		t.Errorf("layout %s %vx%v", first.Layout.Scope, first.Layout.Width, first.Layout.Height)
	}
	if !bytes.HasPrefix(first.Artifacts[FormatSVG], []byte("<?xml")) {
		t.Errorf("svg artifact starts with %q", first.Artifacts[FormatSVG][:10])
	}
	if !strings.Contains(string(first.Artifacts[FormatDOT]), `"bbs" -- "d"`) {
		t.Errorf("dot artifact:\n%s", first.Artifacts[FormatDOT])
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if second.RunID == first.RunID {
		t.Error("run ids repeat")
	}
	if !bytes.Equal(first.Artifacts[FormatJSON], second.Artifacts[FormatJSON]) {
		t.Error("cached json differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh hit the cache: %+v", third.CacheInfo)
	}
}

func TestRunnerComputeLayout_Hints(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := Options{Hints: &sldio.Hints{
		Feeders: []sldio.FeederHint{{VoltageLevel: "vl", Node: "load", Direction: "bottom"}},
	}}
	l, err := r.ComputeLayout(context.Background(), *feederTopology(), opts)
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	for _, n := range l.VoltageLevels[0].Nodes {
		if n.ID == "load" && n.Direction != "bottom" {
			t.Errorf("load direction %q, want bottom", n.Direction)
		}
	}
}

func TestRunnerRead(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	path := filepath.Join(t.TempDir(), "vl.json")
	if err := graph.WriteTopologyFile(*feederTopology(), path); err != nil {
		t.Fatal(err)
	}
	top, err := r.Read(ctx, Options{Input: path})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if top.ID() != "vl" {
		t.Errorf("id = %q", top.ID())
	}

	if _, err := r.Read(ctx, Options{Input: filepath.Join(t.TempDir(), "nope.json")}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Read(cancelled, Options{Input: path}); err != context.Canceled {
		t.Errorf("cancelled read: err = %v", err)
	}
}

func TestPinHints(t *testing.T) {
	in, err := Convert(*feederTopology())
	if err != nil {
		t.Fatal(err)
	}
	h, err := PinHints(in, params.Default(), sldio.Hints{}, StrategyAuto, nil)
	if err != nil {
		t.Fatalf("PinHints: %v", err)
	}
	if len(h.Feeders) != 1 || len(h.Buses) != 1 {
		t.Fatalf("hints = %+v, want one feeder and one busbar", h)
	}
	f := h.Feeders[0]
	if f.Node != "load" || f.Order == nil || *f.Order != 1 {
		t.Errorf("feeder hint = %+v", f)
	}
	if f.Direction != "top" && f.Direction != "bottom" {
		t.Errorf("direction = %q", f.Direction)
	}
	if err := h.Validate(); err != nil {
		t.Errorf("pinned hints invalid: %v", err)
	}
}
