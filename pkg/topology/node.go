package topology

import (
	"fmt"
	"strings"
)

// NodeID is the arena index of a node inside its owning [Graph].
// IDs are assigned in insertion order and never reused, even after removal.
type NodeID int

// NoNode is the sentinel returned when no node applies.
const NoNode NodeID = -1

// Kind classifies a node of a voltage-level graph.
type Kind int

const (
	// KindBus is a busbar section.
	KindBus Kind = iota
	// KindSwitch is a breaker, disconnector or load-break switch.
	KindSwitch
	// KindFeeder is a terminal equipment (load, generator, line end, transformer leg...).
	KindFeeder
	// KindInternal is a connectivity node inserted or kept by graph refinement.
	KindInternal
	// KindFictitious is a raw connectivity node supplied by the topology source.
	KindFictitious
	// KindBusConnection is the synthetic node drawn on a busbar for components that
	// are not themselves drawn on the busbar.
	KindBusConnection
	// KindMiddle2WT is the middle node of a two-winding transformer.
	KindMiddle2WT
	// KindMiddle3WT is the middle node of a three-winding transformer.
	KindMiddle3WT
)

var kindNames = map[Kind]string{
	KindBus:           "bus",
	KindSwitch:        "switch",
	KindFeeder:        "feeder",
	KindInternal:      "internal",
	KindFictitious:    "fictitious",
	KindBusConnection: "bus_connection",
	KindMiddle2WT:     "middle_2wt",
	KindMiddle3WT:     "middle_3wt",
}

// String returns the lower-case wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a wire name back into a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, true
		}
	}
	return 0, false
}

// SwitchKind refines KindSwitch nodes.
type SwitchKind int

const (
	SwitchBreaker SwitchKind = iota
	SwitchDisconnector
	SwitchLoadBreak
)

// String returns the wire name of the switch kind.
func (s SwitchKind) String() string {
	switch s {
	case SwitchDisconnector:
		return "disconnector"
	case SwitchLoadBreak:
		return "load_break_switch"
	default:
		return "breaker"
	}
}

// ParseSwitchKind converts a wire name into a SwitchKind. Unknown names map to breaker.
func ParseSwitchKind(s string) SwitchKind {
	switch strings.ToLower(s) {
	case "disconnector":
		return SwitchDisconnector
	case "load_break_switch", "lbs":
		return SwitchLoadBreak
	default:
		return SwitchBreaker
	}
}

// FeederKind refines KindFeeder nodes. It is a free-form string so that the
// topology source can pass through its own equipment vocabulary.
type FeederKind string

const (
	FeederLoad             FeederKind = "load"
	FeederGenerator        FeederKind = "generator"
	FeederLine             FeederKind = "line"
	FeederTwoWindingsLeg   FeederKind = "two_windings_transformer_leg"
	FeederThreeWindingsLeg FeederKind = "three_windings_transformer_leg"
	FeederCapacitor        FeederKind = "capacitor"
	FeederFictitious       FeederKind = "fictitious"
)

// Component types used as default ComponentType values. The refiner compares
// ComponentType against LayoutParameters.ComponentsOnBusbars.
const (
	ComponentBusbarSection = "BUSBAR_SECTION"
	ComponentBreaker       = "BREAKER"
	ComponentDisconnector  = "DISCONNECTOR"
	ComponentLoadBreak     = "LOAD_BREAK_SWITCH"
	ComponentBusConnection = "BUS_CONNECTION"
	ComponentNode          = "NODE"
	ComponentFeeder        = "FEEDER"
	ComponentTwoWindings   = "TWO_WINDINGS_TRANSFORMER"
	ComponentThreeWindings = "THREE_WINDINGS_TRANSFORMER"
)

// Direction is the side of the busbars a cell or feeder is drawn on.
type Direction int

const (
	DirectionUndefined Direction = iota
	DirectionTop
	DirectionBottom
)

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionTop:
		return "top"
	case DirectionBottom:
		return "bottom"
	default:
		return "undefined"
	}
}

// Opposite returns the other direction. Undefined stays undefined.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionTop:
		return DirectionBottom
	case DirectionBottom:
		return DirectionTop
	default:
		return DirectionUndefined
	}
}

// ParseDirection converts a wire name into a Direction.
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "top":
		return DirectionTop
	case "bottom":
		return DirectionBottom
	default:
		return DirectionUndefined
	}
}

// Side is the horizontal side of a cluster, lane or intern cell leg.
type Side int

const (
	SideUndefined Side = iota
	SideLeft
	SideRight
)

// Flip returns the opposite side.
func (s Side) Flip() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideUndefined
	}
}

// String returns the wire name of the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "undefined"
	}
}

// Point is a position in diagram pixel space.
type Point struct {
	X, Y float64
}

// Node is a vertex of a voltage-level graph.
//
// Nodes are owned exclusively by their [Graph]; other structures refer to them
// by [NodeID]. Kind is fixed once graph refinement completes; only Shunt (set by
// cell detection), Direction (set from the owning cell), Cell and the X/Y
// coordinates (set by the coordinate calculator) change afterwards.
type Node struct {
	ID            NodeID
	Name          string // stable external identifier, used for every sort key
	Kind          Kind
	ComponentType string

	// Switch attributes.
	SwitchKind       SwitchKind
	Open             bool
	FictitiousSwitch bool

	// Feeder attributes.
	FeederKind FeederKind
	Direction  Direction
	Order      int
	HasOrder   bool

	// Bus position hints, 0 when unknown.
	BusbarIndex  int
	SectionIndex int

	Shunt bool
	Cell  int

	X, Y float64
}

// IsBus reports whether the node is a busbar section.
func (n *Node) IsBus() bool { return n.Kind == KindBus }

// IsFeeder reports whether the node is a feeder.
func (n *Node) IsFeeder() bool { return n.Kind == KindFeeder }

// IsConnectivity reports whether the node is an internal or fictitious
// connectivity node. Those nodes delimit primary blocks.
func (n *Node) IsConnectivity() bool {
	return n.Kind == KindInternal || n.Kind == KindFictitious
}

// IsInterior reports whether the node can only appear strictly inside a primary
// block chain (switches, bus connections and transformer middles).
func (n *Node) IsInterior() bool {
	switch n.Kind {
	case KindSwitch, KindBusConnection, KindMiddle2WT, KindMiddle3WT:
		return true
	}
	return false
}

// Point returns the node coordinates.
func (n *Node) Point() Point { return Point{X: n.X, Y: n.Y} }

func defaultComponentType(n *Node) string {
	switch n.Kind {
	case KindBus:
		return ComponentBusbarSection
	case KindSwitch:
		switch n.SwitchKind {
		case SwitchDisconnector:
			return ComponentDisconnector
		case SwitchLoadBreak:
			return ComponentLoadBreak
		default:
			return ComponentBreaker
		}
	case KindFeeder:
		return ComponentFeeder
	case KindBusConnection:
		return ComponentBusConnection
	case KindMiddle2WT:
		return ComponentTwoWindings
	case KindMiddle3WT:
		return ComponentThreeWindings
	default:
		return ComponentNode
	}
}
