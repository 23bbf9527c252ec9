package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/topology"
)

// =============================================================================
// Constants
// =============================================================================

// Topology scopes.
const (
	ScopeVoltageLevel = "voltage_level"
	ScopeSubstation   = "substation"
	ScopeZone         = "zone"
)

// =============================================================================
// Topology - Layout Input
// =============================================================================

// Topology is the input of a layout run. Exactly one field is set.
type Topology struct {
	Zone         *Zone       `json:"zone,omitempty" bson:"zone,omitempty"`
	Substation   *Substation `json:"substation,omitempty" bson:"substation,omitempty"`
	VoltageLevel *Graph      `json:"voltage_level,omitempty" bson:"voltage_level,omitempty"`
}

// Scope returns the scope of the topology, or "" when no field is set.
func (t *Topology) Scope() string {
	switch {
	case t.Zone != nil:
		return ScopeZone
	case t.Substation != nil:
		return ScopeSubstation
	case t.VoltageLevel != nil:
		return ScopeVoltageLevel
	}
	return ""
}

// ID returns the id of the top-level element.
func (t *Topology) ID() string {
	switch {
	case t.Zone != nil:
		return t.Zone.ID
	case t.Substation != nil:
		return t.Substation.ID
	case t.VoltageLevel != nil:
		return t.VoltageLevel.ID
	}
	return ""
}

// Validate checks that exactly one scope is set.
func (t *Topology) Validate() error {
	n := 0
	for _, set := range []bool{t.Zone != nil, t.Substation != nil, t.VoltageLevel != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "topology must hold exactly one of zone, substation or voltage_level, got %d", n)
	}
	return nil
}

// Graph is a voltage level: its nodes and the wires between them.
type Graph struct {
	ID    string `json:"id" bson:"id"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a vertex of a voltage level.
type Node struct {
	ID            string `json:"id" bson:"id"`
	Kind          string `json:"kind" bson:"kind"`
	ComponentType string `json:"component_type,omitempty" bson:"component_type,omitempty"`

	SwitchKind       string `json:"switch_kind,omitempty" bson:"switch_kind,omitempty"`
	Open             bool   `json:"open,omitempty" bson:"open,omitempty"`
	FictitiousSwitch bool   `json:"fictitious_switch,omitempty" bson:"fictitious_switch,omitempty"`

	FeederKind string `json:"feeder_kind,omitempty" bson:"feeder_kind,omitempty"`
	Direction  string `json:"direction,omitempty" bson:"direction,omitempty"`
	Order      *int   `json:"order,omitempty" bson:"order,omitempty"`

	BusbarIndex  int `json:"busbar_index,omitempty" bson:"busbar_index,omitempty"`
	SectionIndex int `json:"section_index,omitempty" bson:"section_index,omitempty"`
}

// Edge is an undirected wire between two nodes of the same voltage level.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// Ref addresses a node of a voltage level.
type Ref struct {
	VoltageLevel string `json:"voltage_level" bson:"voltage_level"`
	Node         string `json:"node" bson:"node"`
}

// Transformer is a two- or three-winding transformer of a substation. Kind is
// "middle_2wt" or "middle_3wt"; each leg is a feeder node.
type Transformer struct {
	ID   string `json:"id" bson:"id"`
	Kind string `json:"kind" bson:"kind"`
	Legs []Ref  `json:"legs" bson:"legs"`
}

// Line joins two feeder nodes of different voltage levels.
type Line struct {
	ID   string `json:"id" bson:"id"`
	From Ref    `json:"from" bson:"from"`
	To   Ref    `json:"to" bson:"to"`
}

// Substation groups voltage levels with the transformers and lines between
// them.
type Substation struct {
	ID            string        `json:"id" bson:"id"`
	VoltageLevels []Graph       `json:"voltage_levels" bson:"voltage_levels"`
	Transformers  []Transformer `json:"transformers,omitempty" bson:"transformers,omitempty"`
	Lines         []Line        `json:"lines,omitempty" bson:"lines,omitempty"`
}

// Zone groups substations with the lines between them.
type Zone struct {
	ID          string       `json:"id" bson:"id"`
	Substations []Substation `json:"substations" bson:"substations"`
	Lines       []Line       `json:"lines,omitempty" bson:"lines,omitempty"`
}

// =============================================================================
// Wire ↔ Model Conversion
// =============================================================================

// ToGraph builds a voltage-level graph.
func ToGraph(gj Graph) (*topology.Graph, error) {
	if err := errors.ValidateIdentifier("voltage level", gj.ID); err != nil {
		return nil, err
	}
	g := topology.New(gj.ID)
	for _, nj := range gj.Nodes {
		if err := errors.ValidateIdentifier("node", nj.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "voltage level %s", gj.ID)
		}
		n, err := toNode(nj)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "voltage level %s", gj.ID)
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "voltage level %s: node %q", gj.ID, nj.ID)
		}
	}
	for _, ej := range gj.Edges {
		a, okA := g.Lookup(ej.From)
		b, okB := g.Lookup(ej.To)
		if !okA || !okB {
			return nil, errors.New(errors.ErrCodeInvalidInput, "voltage level %s: edge %s-%s references an unknown node", gj.ID, ej.From, ej.To)
		}
		if err := g.AddEdge(a.ID, b.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "voltage level %s: edge %s-%s", gj.ID, ej.From, ej.To)
		}
	}
	return g, nil
}

func toNode(nj Node) (topology.Node, error) {
	kind, ok := topology.ParseKind(nj.Kind)
	if !ok {
		return topology.Node{}, fmt.Errorf("node %q: unknown kind %q", nj.ID, nj.Kind)
	}
	n := topology.Node{
		Name:             nj.ID,
		Kind:             kind,
		ComponentType:    nj.ComponentType,
		SwitchKind:       topology.ParseSwitchKind(nj.SwitchKind),
		Open:             nj.Open,
		FictitiousSwitch: nj.FictitiousSwitch,
		FeederKind:       topology.FeederKind(nj.FeederKind),
		Direction:        topology.ParseDirection(nj.Direction),
		BusbarIndex:      nj.BusbarIndex,
		SectionIndex:     nj.SectionIndex,
	}
	if nj.Order != nil {
		n.Order, n.HasOrder = *nj.Order, true
	}
	return n, nil
}

// FromGraph serializes a voltage-level graph. Nodes and edges are sorted by
// name for deterministic output.
func FromGraph(g *topology.Graph) Graph {
	nodes := g.Nodes()
	topology.SortByName(nodes)
	out := Graph{ID: g.ID(), Nodes: make([]Node, len(nodes))}
	for i, n := range nodes {
		out.Nodes[i] = fromNode(n)
	}
	out.Edges = wires(g)
	return out
}

func fromNode(n *topology.Node) Node {
	nj := Node{
		ID:            n.Name,
		Kind:          n.Kind.String(),
		ComponentType: n.ComponentType,
		BusbarIndex:   n.BusbarIndex,
		SectionIndex:  n.SectionIndex,
	}
	switch n.Kind {
	case topology.KindSwitch:
		nj.SwitchKind = n.SwitchKind.String()
		nj.Open = n.Open
		nj.FictitiousSwitch = n.FictitiousSwitch
	case topology.KindFeeder:
		nj.FeederKind = string(n.FeederKind)
	}
	if n.Direction != topology.DirectionUndefined {
		nj.Direction = n.Direction.String()
	}
	if n.HasOrder {
		order := n.Order
		nj.Order = &order
	}
	return nj
}

// wires returns the edges of g by node name, each written with the smaller
// name first and sorted.
func wires(g *topology.Graph) []Edge {
	edges := g.Edges()
	out := make([]Edge, len(edges))
	for i, e := range edges {
		a, b := g.Name(e.A), g.Name(e.B)
		if b < a {
			a, b = b, a
		}
		out[i] = Edge{From: a, To: b}
	}
	slices.SortFunc(out, func(x, y Edge) int {
		if c := strings.Compare(x.From, y.From); c != 0 {
			return c
		}
		return strings.Compare(x.To, y.To)
	})
	return out
}

func toRef(r Ref) topology.NodeRef {
	return topology.NodeRef{Graph: r.VoltageLevel, Node: r.Node}
}

func fromRef(r topology.NodeRef) Ref {
	return Ref{VoltageLevel: r.Graph, Node: r.Node}
}

func toLines(lines []Line) []topology.BranchEdge {
	out := make([]topology.BranchEdge, len(lines))
	for i, l := range lines {
		out[i] = topology.BranchEdge{Name: l.ID, From: toRef(l.From), To: toRef(l.To)}
	}
	return out
}

// ToSubstation builds a substation. Transformer kinds must be middle_2wt or
// middle_3wt; references are resolved later, at layout time.
func ToSubstation(sj Substation) (*topology.Substation, error) {
	s := &topology.Substation{ID: sj.ID, Lines: toLines(sj.Lines)}
	for _, gj := range sj.VoltageLevels {
		g, err := ToGraph(gj)
		if err != nil {
			return nil, fmt.Errorf("substation %s: %w", sj.ID, err)
		}
		s.VoltageLevels = append(s.VoltageLevels, g)
	}
	for _, tj := range sj.Transformers {
		kind, ok := topology.ParseKind(tj.Kind)
		if !ok || (kind != topology.KindMiddle2WT && kind != topology.KindMiddle3WT) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "substation %s: transformer %s has kind %q", sj.ID, tj.ID, tj.Kind)
		}
		t := &topology.MultiTerminal{Name: tj.ID, Kind: kind}
		for _, r := range tj.Legs {
			t.Legs = append(t.Legs, toRef(r))
		}
		s.Transformers = append(s.Transformers, t)
	}
	return s, nil
}

// ToZone builds a zone.
func ToZone(zj Zone) (*topology.Zone, error) {
	z := &topology.Zone{ID: zj.ID, Lines: toLines(zj.Lines)}
	for _, sj := range zj.Substations {
		s, err := ToSubstation(sj)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", zj.ID, err)
		}
		z.Substations = append(z.Substations, s)
	}
	return z, nil
}
