package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/singleline/internal/testgraph"
	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout"
	"github.com/matzehuels/singleline/pkg/layout/params"
	"github.com/matzehuels/singleline/pkg/topology"
)

const sidecar = `
[[feeder]]
voltage_level = "vl"
node = "load"
direction = "bottom"
order = 4

[[feeder]]
voltage_level = "vl"
node = "ghost"
direction = "top"

[[bus]]
voltage_level = "vl"
node = "bbs"
busbar = 1
section = 2

[[bus]]
voltage_level = "other"
node = "bbs"
busbar = 1
`

func TestReadHints(t *testing.T) {
	h, err := ReadHints(strings.NewReader(sidecar))
	if err != nil {
		t.Fatalf("ReadHints: %v", err)
	}
	if len(h.Feeders) != 2 || len(h.Buses) != 2 || h.Len() != 4 {
		t.Fatalf("hints = %+v", h)
	}
	if h.Feeders[0].Order == nil || *h.Feeders[0].Order != 4 {
		t.Errorf("order = %v", h.Feeders[0].Order)
	}
}

func TestReadHints_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"Malformed", `[[feeder]`, errors.ErrCodeInvalidFormat},
		{"UnknownKey", "[[feeder]]\nvoltage_level = \"vl\"\ncolour = \"red\"", errors.ErrCodeInvalidFormat},
		{"BadDirection", "[[feeder]]\nvoltage_level = \"vl\"\nnode = \"x\"\ndirection = \"sideways\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadHints(strings.NewReader(tt.input)); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestApply(t *testing.T) {
	h, err := ReadHints(strings.NewReader(sidecar))
	if err != nil {
		t.Fatal(err)
	}
	g := testgraph.FeederCell().G
	r := h.Apply([]*topology.Graph{g}, nil)

	if r.Applied != 2 {
		t.Errorf("Applied = %d, want 2", r.Applied)
	}
	want := []topology.NodeRef{{Graph: "vl", Node: "ghost"}, {Graph: "other", Node: "bbs"}}
	if diff := cmp.Diff(want, r.Missing); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}

	load, _ := g.Lookup("load")
	if load.Direction != topology.DirectionBottom || !load.HasOrder || load.Order != 4 {
		t.Errorf("load = %v/%v/%v", load.Direction, load.HasOrder, load.Order)
	}
	bbs, _ := g.Lookup("bbs")
	if bbs.BusbarIndex != 1 || bbs.SectionIndex != 2 {
		t.Errorf("bbs = %d/%d", bbs.BusbarIndex, bbs.SectionIndex)
	}
}

func TestApply_WrongKind(t *testing.T) {
	h := Hints{Feeders: []FeederHint{{VoltageLevel: "vl", Node: "bbs", Direction: "top"}}}
	g := testgraph.FeederCell().G
	r := h.Apply([]*topology.Graph{g}, nil)
	if r.Applied != 0 || len(r.Missing) != 1 {
		t.Errorf("report = %+v, want the bus rejected as a feeder", r)
	}
}

func TestExtract_RoundTrip(t *testing.T) {
	h, err := ReadHints(strings.NewReader(sidecar))
	if err != nil {
		t.Fatal(err)
	}
	g := testgraph.FeederCell().G
	h.Apply([]*topology.Graph{g}, nil)

	got := Extract([]*topology.Graph{g})
	var buf bytes.Buffer
	if err := got.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := ReadHints(&buf)
	if err != nil {
		t.Fatalf("ReadHints: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(got, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if len(back.Feeders) != 1 || len(back.Buses) != 1 {
		t.Errorf("extracted %+v", back)
	}
}

func TestFromLayout(t *testing.T) {
	g := testgraph.Coupling().G
	vl, err := layout.NewContext(params.Default(), nil).LayoutVoltageLevel(g)
	if err != nil {
		t.Fatalf("LayoutVoltageLevel: %v", err)
	}
	h := FromLayout([]*layout.VoltageLevel{vl})

	if len(h.Buses) != 2 {
		t.Fatalf("bus hints = %+v", h.Buses)
	}
	sections := map[string]int{}
	for _, b := range h.Buses {
		if b.Busbar != 1 {
			t.Errorf("%s on busbar %d, want 1", b.Node, b.Busbar)
		}
		sections[b.Node] = b.Section
	}
	if sections["bbs1"] != 1 || sections["bbs2"] != 2 {
		t.Errorf("sections = %v, want bbs1 then bbs2", sections)
	}

	orders := map[string]int{}
	for _, f := range h.Feeders {
		orders[f.Node] = *f.Order
		if f.Direction == "undefined" {
			t.Errorf("%s has no direction", f.Node)
		}
	}
	if orders["load1"] != 1 || orders["load2"] != 2 {
		t.Errorf("orders = %v", orders)
	}
}
