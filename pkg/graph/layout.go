package graph

import (
	"slices"
	"strings"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout"
	"github.com/matzehuels/singleline/pkg/layout/cell"
	"github.com/matzehuels/singleline/pkg/topology"
)

// =============================================================================
// Layout - Layout Output
// =============================================================================

// Layout is the serialized result of a layout run.
//
// Scope tells which fields are populated:
//
//	voltage_level: VoltageLevels holds the single voltage level
//	substation:    Substations holds the single substation
//	zone:          Substations holds every substation, Edges the zone lines
type Layout struct {
	Scope  string  `json:"scope" bson:"scope"`
	ID     string  `json:"id" bson:"id"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	VoltageLevels []PlacedVoltageLevel `json:"voltage_levels,omitempty" bson:"voltage_levels,omitempty"`
	Substations   []PlacedSubstation   `json:"substations,omitempty" bson:"substations,omitempty"`
	Edges         []RoutedEdge         `json:"edges,omitempty" bson:"edges,omitempty"`
}

// Box is the placement of a laid-out element.
type Box struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Point is a position in diagram space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// PlacedVoltageLevel is a laid-out voltage level.
type PlacedVoltageLevel struct {
	ID string `json:"id" bson:"id"`

	Box `bson:",inline"`

	Nodes []PlacedNode `json:"nodes" bson:"nodes"`
	Buses []BusSegment `json:"buses" bson:"buses"`
	Cells []Cell       `json:"cells" bson:"cells"`
	Wires []Edge       `json:"wires" bson:"wires"`
}

// PlacedNode is a node with its coordinates. Cell is -1 for busbars.
type PlacedNode struct {
	ID        string  `json:"id" bson:"id"`
	Kind      string  `json:"kind" bson:"kind"`
	Component string  `json:"component,omitempty" bson:"component,omitempty"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Cell      int     `json:"cell" bson:"cell"`
	Direction string  `json:"direction,omitempty" bson:"direction,omitempty"`
}

// BusSegment is the drawn extent of a busbar.
type BusSegment struct {
	ID string  `json:"id" bson:"id"`
	X1 float64 `json:"x1" bson:"x1"`
	X2 float64 `json:"x2" bson:"x2"`
	Y  float64 `json:"y" bson:"y"`
}

// Cell describes a detected cell.
type Cell struct {
	ID        int    `json:"id" bson:"id"`
	FullID    string `json:"full_id" bson:"full_id"`
	Kind      string `json:"kind" bson:"kind"`
	Shape     string `json:"shape,omitempty" bson:"shape,omitempty"`
	Direction string `json:"direction,omitempty" bson:"direction,omitempty"`
}

// PlacedSubstation is a laid-out substation.
type PlacedSubstation struct {
	ID string `json:"id" bson:"id"`

	Box `bson:",inline"`

	VoltageLevels []PlacedVoltageLevel `json:"voltage_levels" bson:"voltage_levels"`
	Transformers  []PlacedTransformer  `json:"transformers,omitempty" bson:"transformers,omitempty"`
	Edges         []RoutedEdge         `json:"edges,omitempty" bson:"edges,omitempty"`
}

// PlacedTransformer is a transformer middle node with its coordinates.
type PlacedTransformer struct {
	ID   string  `json:"id" bson:"id"`
	Kind string  `json:"kind" bson:"kind"`
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
}

// RoutedEdge is a line or transformer leg with its polyline. Points is empty
// for lines that could not be routed.
type RoutedEdge struct {
	ID     string  `json:"id" bson:"id"`
	From   Ref     `json:"from" bson:"from"`
	To     Ref     `json:"to" bson:"to"`
	Points []Point `json:"points" bson:"points"`
}

// AllVoltageLevels returns every placed voltage level of the layout in
// order, whatever its scope.
func (l *Layout) AllVoltageLevels() []PlacedVoltageLevel {
	out := slices.Clone(l.VoltageLevels)
	for _, s := range l.Substations {
		out = append(out, s.VoltageLevels...)
	}
	return out
}

// AllEdges returns the routed edges of every substation followed by the zone
// lines.
func (l *Layout) AllEdges() []RoutedEdge {
	var out []RoutedEdge
	for _, s := range l.Substations {
		out = append(out, s.Edges...)
	}
	return append(out, l.Edges...)
}

// Validate checks that the populated fields match the scope.
func (l *Layout) Validate() error {
	switch l.Scope {
	case ScopeVoltageLevel:
		if len(l.VoltageLevels) != 1 {
			return errors.New(errors.ErrCodeInvalidFormat, "voltage_level layout must contain one voltage level, got %d", len(l.VoltageLevels))
		}
	case ScopeSubstation:
		if len(l.Substations) != 1 {
			return errors.New(errors.ErrCodeInvalidFormat, "substation layout must contain one substation, got %d", len(l.Substations))
		}
	case ScopeZone:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown layout scope %q", l.Scope)
	}
	return nil
}

// =============================================================================
// Layout Export
// =============================================================================

// ExportVoltageLevel serializes a laid-out voltage level.
func ExportVoltageLevel(vl *layout.VoltageLevel) Layout {
	return Layout{
		Scope:         ScopeVoltageLevel,
		ID:            vl.ID(),
		Width:         vl.Frame.X + vl.Frame.Width,
		Height:        vl.Frame.Y + vl.Frame.Height,
		VoltageLevels: []PlacedVoltageLevel{placeVoltageLevel(vl)},
	}
}

// ExportSubstation serializes a laid-out substation.
func ExportSubstation(s *layout.Substation) Layout {
	return Layout{
		Scope:       ScopeSubstation,
		ID:          s.ID(),
		Width:       s.X + s.Width,
		Height:      s.Y + s.Height,
		Substations: []PlacedSubstation{placeSubstation(s)},
	}
}

// ExportZone serializes a laid-out zone.
func ExportZone(z *layout.Zone) Layout {
	out := Layout{
		Scope:  ScopeZone,
		ID:     z.Zone.ID,
		Width:  z.Width,
		Height: z.Height,
		Edges:  routedEdges(z.Edges),
	}
	for _, s := range z.Substations {
		out.Substations = append(out.Substations, placeSubstation(s))
	}
	return out
}

func placeVoltageLevel(vl *layout.VoltageLevel) PlacedVoltageLevel {
	g, f := vl.Graph, vl.Frame
	out := PlacedVoltageLevel{
		ID:    vl.ID(),
		Box:   Box{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
		Wires: wires(g),
	}

	nodes := g.Nodes()
	topology.SortByName(nodes)
	for _, n := range nodes {
		pn := PlacedNode{ID: n.Name, Kind: n.Kind.String(), Component: n.ComponentType, X: n.X, Y: n.Y, Cell: n.Cell}
		if !n.IsBus() {
			pn.Direction = vl.Direction(n).String()
		}
		out.Nodes = append(out.Nodes, pn)
	}

	for id, seg := range f.Buses {
		out.Buses = append(out.Buses, BusSegment{ID: g.Name(id), X1: seg.X1, X2: seg.X2, Y: seg.Y})
	}
	slices.SortFunc(out.Buses, func(a, b BusSegment) int { return strings.Compare(a.ID, b.ID) })

	for _, c := range vl.Cells.Cells {
		cj := Cell{ID: c.ID, FullID: c.FullID(), Kind: c.Kind.String()}
		if c.Shape != cell.ShapeUndefined {
			cj.Shape = c.Shape.String()
		}
		if c.Direction != topology.DirectionUndefined {
			cj.Direction = c.Direction.String()
		}
		out.Cells = append(out.Cells, cj)
	}
	return out
}

func placeSubstation(s *layout.Substation) PlacedSubstation {
	out := PlacedSubstation{
		ID:    s.ID(),
		Box:   Box{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height},
		Edges: routedEdges(s.Edges),
	}
	for _, vl := range s.VoltageLevels {
		out.VoltageLevels = append(out.VoltageLevels, placeVoltageLevel(vl))
	}
	for _, t := range s.Substation.Transformers {
		out.Transformers = append(out.Transformers, PlacedTransformer{ID: t.Name, Kind: t.Kind.String(), X: t.X, Y: t.Y})
	}
	return out
}

func routedEdges(edges []layout.Edge) []RoutedEdge {
	out := make([]RoutedEdge, len(edges))
	for i, e := range edges {
		pts := make([]Point, len(e.Points))
		for j, p := range e.Points {
			pts[j] = Point{X: p.X, Y: p.Y}
		}
		out[i] = RoutedEdge{ID: e.Name, From: fromRef(e.From), To: fromRef(e.To), Points: pts}
	}
	return out
}
