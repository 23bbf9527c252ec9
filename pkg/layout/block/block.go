package block

import (
	"fmt"
	"slices"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Orientation is the direction a block grows in, starting from its bus side.
type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
)

// IsVertical reports whether the orientation is Up or Down.
func (o Orientation) IsVertical() bool { return o == Up || o == Down }

// Sign is -1 when the orientation points toward decreasing pixel coordinates
// (Up, Left) and +1 otherwise.
func (o Orientation) Sign() float64 {
	if o == Up || o == Left {
		return -1
	}
	return 1
}

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	default:
		return "RIGHT"
	}
}

// FromDirection maps a cell direction to the orientation of its blocks.
// Bottom cells grow downward; everything else grows upward.
func FromDirection(d topology.Direction) Orientation {
	if d == topology.DirectionBottom {
		return Down
	}
	return Up
}

// Position is the location of a block in abstract grid units.
type Position struct {
	H, V         int
	SpanH, SpanV int
	Orientation  Orientation
}

// Coord is the pixel geometry of a block: its center and its full extents.
type Coord struct {
	X, Y         float64
	SpanX, SpanY float64
}

// Block is a node of a cell's block tree. The set of implementations is
// closed: *LegPrimary, *FeederPrimary, *BodyPrimary, *Serial, *BodyParallel,
// *LegParallel and *Undefined. Code dispatching on blocks uses an exhaustive
// type switch.
type Block interface {
	Pos() *Position
	Coord() *Coord
	// Start is the node the block hangs from (bus side), or NoNode.
	Start() topology.NodeID
	// End is the node the block leads to, or NoNode.
	End() topology.NodeID
	sealed()
}

type base struct {
	pos   Position
	coord Coord
}

func (b *base) Pos() *Position { return &b.pos }
func (b *base) Coord() *Coord  { return &b.coord }
func (*base) sealed()          {}

// LegPrimary is the three-node chain bus, connector, hook.
type LegPrimary struct {
	base
	Bus, Connector, Hook topology.NodeID
}

func (b *LegPrimary) Start() topology.NodeID { return b.Bus }
func (b *LegPrimary) End() topology.NodeID   { return b.Hook }

// FeederPrimary is the two-node chain hook, feeder.
type FeederPrimary struct {
	base
	Hook, Feeder topology.NodeID
}

func (b *FeederPrimary) Start() topology.NodeID { return b.Hook }
func (b *FeederPrimary) End() topology.NodeID   { return b.Feeder }

// BodyPrimary is any other chain of at least two nodes.
type BodyPrimary struct {
	base
	Nodes []topology.NodeID
}

func (b *BodyPrimary) Start() topology.NodeID { return b.Nodes[0] }
func (b *BodyPrimary) End() topology.NodeID   { return b.Nodes[len(b.Nodes)-1] }

// Serial chains its children end to start.
type Serial struct {
	base
	Children []Block
}

func (b *Serial) Start() topology.NodeID { return b.Children[0].Start() }
func (b *Serial) End() topology.NodeID   { return b.Children[len(b.Children)-1].End() }

// BodyParallel groups blocks sharing their start node and, unless they lead
// to distinct feeders, their end node.
type BodyParallel struct {
	base
	Children []Block
	start    topology.NodeID
	end      topology.NodeID
}

func (b *BodyParallel) Start() topology.NodeID { return b.start }
func (b *BodyParallel) End() topology.NodeID   { return b.end }

// LegParallel groups legs from different buses ending on the same hook.
// Stacked legs share one column, each connector sitting on its own bus.
type LegParallel struct {
	base
	Children []*LegPrimary
	Stacked  bool
}

func (b *LegParallel) Start() topology.NodeID { return b.Children[0].Bus }
func (b *LegParallel) End() topology.NodeID   { return b.Children[0].Hook }

// Buses returns the buses of the legs in child order.
func (b *LegParallel) Buses() []topology.NodeID {
	out := make([]topology.NodeID, len(b.Children))
	for i, c := range b.Children {
		out[i] = c.Bus
	}
	return out
}

// Undefined approximates a cell whose blocks match no known pattern.
type Undefined struct {
	base
	Children []Block
}

func (b *Undefined) Start() topology.NodeID { return topology.NoNode }
func (b *Undefined) End() topology.NodeID   { return topology.NoNode }

// NewSerial chains children. Each child must start where the previous ends.
func NewSerial(children ...Block) (*Serial, error) {
	for i := 1; i < len(children); i++ {
		if children[i-1].End() != children[i].Start() {
			return nil, errors.New(errors.ErrCodeStructural, "serial block: child %d does not start where child %d ends", i, i-1)
		}
	}
	return &Serial{Children: children}, nil
}

// NewBodyParallel groups children sharing their start node. The end is kept
// only when every child shares it.
func NewBodyParallel(children ...Block) *BodyParallel {
	end := children[0].End()
	for _, c := range children[1:] {
		if c.End() != end {
			end = topology.NoNode
		}
	}
	return &BodyParallel{Children: children, start: children[0].Start(), end: end}
}

// NewLegParallel groups legs ending on the same hook.
func NewLegParallel(stacked bool, legs ...*LegPrimary) *LegParallel {
	return &LegParallel{Children: legs, Stacked: stacked}
}

// NewUndefined wraps blocks that could not be merged.
func NewUndefined(children ...Block) *Undefined {
	return &Undefined{Children: children}
}

// NewPrimary classifies a chain of nodes into a primary block. The chain is
// reversed when needed so that a bus comes first and a feeder comes last.
func NewPrimary(g *topology.Graph, nodes []topology.NodeID) (Block, error) {
	if len(nodes) < 2 {
		return nil, errors.New(errors.ErrCodeStructural, "primary block needs at least two nodes, got %d", len(nodes))
	}
	chain := slices.Clone(nodes)
	first, last := g.Node(chain[0]), g.Node(chain[len(chain)-1])
	if (last.IsBus() && !first.IsBus()) || (first.IsFeeder() && !last.IsFeeder()) {
		slices.Reverse(chain)
		first, last = last, first
	}

	switch {
	case first.IsBus() && last.IsBus():
		return &BodyPrimary{Nodes: chain}, nil
	case first.IsBus():
		if len(chain) != 3 || !g.Node(chain[1]).IsInterior() || !last.IsConnectivity() {
			return nil, errors.New(errors.ErrCodeStructural, "unexpected leg pattern %s", chainNames(g, chain))
		}
		return &LegPrimary{Bus: chain[0], Connector: chain[1], Hook: chain[2]}, nil
	case last.IsFeeder() && len(chain) == 2 && first.IsConnectivity():
		return &FeederPrimary{Hook: chain[0], Feeder: chain[1]}, nil
	default:
		return &BodyPrimary{Nodes: chain}, nil
	}
}

func chainNames(g *topology.Graph, ids []topology.NodeID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = g.Name(id)
	}
	return fmt.Sprint(names)
}

// IsLeg reports whether b is a leg or a group of legs.
func IsLeg(b Block) bool {
	switch b.(type) {
	case *LegPrimary, *LegParallel:
		return true
	}
	return false
}

// Legs returns the leg primaries of a leg block.
func Legs(b Block) []*LegPrimary {
	switch b := b.(type) {
	case *LegPrimary:
		return []*LegPrimary{b}
	case *LegParallel:
		return b.Children
	}
	return nil
}

// Reverse returns b with its start and end swapped. Legs and feeders have a
// fixed direction and cannot be reversed.
func Reverse(b Block) (Block, bool) {
	switch b := b.(type) {
	case *BodyPrimary:
		nodes := slices.Clone(b.Nodes)
		slices.Reverse(nodes)
		return &BodyPrimary{base: b.base, Nodes: nodes}, true
	case *Serial:
		children := make([]Block, len(b.Children))
		for i, c := range b.Children {
			r, ok := Reverse(c)
			if !ok {
				return b, false
			}
			children[len(children)-1-i] = r
		}
		return &Serial{base: b.base, Children: children}, true
	case *BodyParallel:
		if b.end == topology.NoNode {
			return b, false
		}
		children := make([]Block, len(b.Children))
		for i, c := range b.Children {
			r, ok := Reverse(c)
			if !ok {
				return b, false
			}
			children[i] = r
		}
		return &BodyParallel{base: b.base, Children: children, start: b.end, end: b.start}, true
	}
	return b, false
}

// Children returns the direct children of b.
func Children(b Block) []Block {
	switch b := b.(type) {
	case *Serial:
		return b.Children
	case *BodyParallel:
		return b.Children
	case *Undefined:
		return b.Children
	case *LegParallel:
		out := make([]Block, len(b.Children))
		for i, c := range b.Children {
			out[i] = c
		}
		return out
	}
	return nil
}

// Walk visits b and its descendants depth first, parents before children.
func Walk(b Block, fn func(Block)) {
	fn(b)
	for _, c := range Children(b) {
		Walk(c, fn)
	}
}

// Nodes returns every node of the block tree in chain order. Nodes shared by
// consecutive blocks appear once.
func Nodes(b Block) []topology.NodeID {
	var out []topology.NodeID
	seen := make(map[topology.NodeID]bool)
	add := func(ids ...topology.NodeID) {
		for _, id := range ids {
			if id != topology.NoNode && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	var visit func(Block)
	visit = func(b Block) {
		switch b := b.(type) {
		case *LegPrimary:
			add(b.Bus, b.Connector, b.Hook)
		case *FeederPrimary:
			add(b.Hook, b.Feeder)
		case *BodyPrimary:
			add(b.Nodes...)
		default:
			for _, c := range Children(b) {
				visit(c)
			}
		}
	}
	visit(b)
	return out
}

// SetOrientation sets the orientation of b and all its descendants.
func SetOrientation(b Block, o Orientation) {
	Walk(b, func(x Block) { x.Pos().Orientation = o })
}
