package sink

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/layout"
	"github.com/matzehuels/singleline/pkg/layout/params"
)

func feederLayout(t *testing.T) graph.Layout {
	t.Helper()
	vl, err := layout.NewContext(params.Default(), nil).LayoutVoltageLevel(testgraph.FeederCell().G)
	if err != nil {
		t.Fatalf("LayoutVoltageLevel: %v", err)
	}
	return graph.ExportVoltageLevel(vl)
}

func TestRenderSVG(t *testing.T) {
	l := feederLayout(t)
	out, err := RenderSVG(l, WithLabels(), WithFrames())
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	for _, want := range []string{"<svg", `id="vl-vl"`, busStyle, breakerStyle, ">load</text>", frameStyle, "</svg>"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestRenderSVG_Errors(t *testing.T) {
	if _, err := RenderSVG(graph.Layout{Scope: "galaxy"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown scope: err = %v", err)
	}
	if _, err := RenderSVG(feederLayout(t), WithMargin(-1)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative margin: err = %v", err)
	}
}

func TestRenderSVG_ZoneLines(t *testing.T) {
	l := graph.Layout{
		Scope: graph.ScopeZone, ID: "z", Width: 50, Height: 50,
		Edges: []graph.RoutedEdge{{ID: "l", Points: []graph.Point{{X: 0, Y: 0}, {X: 0, Y: 20}, {X: 30, Y: 20}}}},
	}
	out, err := RenderSVG(l, WithMargin(0))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(out, []byte(`points="0,0 0,20 30,20`)) {
		t.Errorf("zone line missing:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	l := feederLayout(t)
	for _, opts := range [][]JSONOption{nil, {WithCompactJSON()}} {
		data, err := RenderJSON(l, opts...)
		if err != nil {
			t.Fatalf("RenderJSON: %v", err)
		}
		back, err := graph.UnmarshalLayout(data)
		if err != nil {
			t.Fatalf("UnmarshalLayout: %v", err)
		}
		if diff := cmp.Diff(l, back); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	}
}
