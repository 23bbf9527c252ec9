package topology

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrUnknownVoltageLevel is returned when a [NodeRef] names a voltage level
	// that is not part of the container.
	ErrUnknownVoltageLevel = errors.New("unknown voltage level")

	// ErrUnknownSubstation is returned when a zone references a substation it
	// does not contain.
	ErrUnknownSubstation = errors.New("unknown substation")

	// ErrInvalidMultiTerminal is returned by [Substation.Validate] when a
	// transformer has the wrong number of legs for its kind.
	ErrInvalidMultiTerminal = errors.New("invalid multi-terminal node")
)

// NodeRef addresses a node across graphs: the voltage-level id plus the node
// name inside that voltage level.
type NodeRef struct {
	Graph string
	Node  string
}

// String formats the reference as "graph/node".
func (r NodeRef) String() string { return r.Graph + "/" + r.Node }

// MultiTerminal is a transformer middle node owned by a substation. Its legs
// are feeder nodes of the substation's voltage levels.
type MultiTerminal struct {
	Name string
	Kind Kind // KindMiddle2WT or KindMiddle3WT
	Legs []NodeRef
	X, Y float64
}

// BranchEdge connects two nodes living in different graphs (a line between two
// voltage levels, or a transformer leg to its middle node).
type BranchEdge struct {
	Name     string
	From, To NodeRef
}

// Substation groups voltage levels and the transformers connecting them.
type Substation struct {
	ID            string
	VoltageLevels []*Graph
	Transformers  []*MultiTerminal
	Lines         []BranchEdge
}

// VoltageLevel returns the voltage level with the given id.
func (s *Substation) VoltageLevel(id string) (*Graph, bool) {
	for _, g := range s.VoltageLevels {
		if g.ID() == id {
			return g, true
		}
	}
	return nil, false
}

// Resolve returns the graph and node addressed by ref.
func (s *Substation) Resolve(ref NodeRef) (*Graph, *Node, error) {
	g, ok := s.VoltageLevel(ref.Graph)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownVoltageLevel, ref.Graph)
	}
	n, ok := g.Lookup(ref.Node)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNode, ref)
	}
	return g, n, nil
}

// Validate checks every voltage level and every transformer leg.
func (s *Substation) Validate() error {
	var result error
	for _, g := range s.VoltageLevels {
		if err := g.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("voltage level %s: %w", g.ID(), err))
		}
	}
	for _, t := range s.Transformers {
		want := 2
		if t.Kind == KindMiddle3WT {
			want = 3
		}
		if len(t.Legs) != want {
			result = multierror.Append(result, fmt.Errorf("%w: %s has %d legs, want %d", ErrInvalidMultiTerminal, t.Name, len(t.Legs), want))
		}
		for _, leg := range t.Legs {
			if _, _, err := s.Resolve(leg); err != nil {
				result = multierror.Append(result, fmt.Errorf("transformer %s: %w", t.Name, err))
			}
		}
	}
	for _, l := range s.Lines {
		for _, ref := range []NodeRef{l.From, l.To} {
			if _, _, err := s.Resolve(ref); err != nil {
				result = multierror.Append(result, fmt.Errorf("line %s: %w", l.Name, err))
			}
		}
	}
	return result
}

// Zone groups substations and the lines connecting them.
type Zone struct {
	ID          string
	Substations []*Substation
	Lines       []BranchEdge
}

// Substation returns the substation with the given id.
func (z *Zone) Substation(id string) (*Substation, bool) {
	for _, s := range z.Substations {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Locate returns the substation owning the voltage level named by ref, plus
// the resolved graph and node.
func (z *Zone) Locate(ref NodeRef) (*Substation, *Graph, *Node, error) {
	for _, s := range z.Substations {
		if _, ok := s.VoltageLevel(ref.Graph); ok {
			g, n, err := s.Resolve(ref)
			return s, g, n, err
		}
	}
	return nil, nil, nil, fmt.Errorf("%w: %s", ErrUnknownVoltageLevel, ref.Graph)
}

// Validate checks every substation and every line endpoint.
func (z *Zone) Validate() error {
	var result error
	for _, s := range z.Substations {
		if err := s.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("substation %s: %w", s.ID, err))
		}
	}
	for _, l := range z.Lines {
		for _, ref := range []NodeRef{l.From, l.To} {
			if _, _, _, err := z.Locate(ref); err != nil {
				result = multierror.Append(result, fmt.Errorf("line %s: %w", l.Name, err))
			}
		}
	}
	return result
}
