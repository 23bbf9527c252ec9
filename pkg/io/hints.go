package io

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/layout"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Hints is the content of a hint sidecar.
type Hints struct {
	Feeders []FeederHint `toml:"feeder" json:"feeders,omitempty"`
	Buses   []BusHint    `toml:"bus" json:"buses,omitempty"`
}

// FeederHint pins the direction and order of a feeder.
type FeederHint struct {
	VoltageLevel string `toml:"voltage_level" json:"voltage_level"`
	Node         string `toml:"node" json:"node"`
	Direction    string `toml:"direction,omitempty" json:"direction,omitempty"`
	Order        *int   `toml:"order,omitempty" json:"order,omitempty"`
}

// BusHint pins the busbar row and section of a busbar.
type BusHint struct {
	VoltageLevel string `toml:"voltage_level" json:"voltage_level"`
	Node         string `toml:"node" json:"node"`
	Busbar       int    `toml:"busbar,omitempty" json:"busbar,omitempty"`
	Section      int    `toml:"section,omitempty" json:"section,omitempty"`
}

// Report summarizes [Hints.Apply].
type Report struct {
	Applied int
	Missing []topology.NodeRef
}

// ReadHints decodes a hint sidecar from r.
func ReadHints(r io.Reader) (Hints, error) {
	var h Hints
	md, err := toml.NewDecoder(r).Decode(&h)
	if err != nil {
		return Hints{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode hints")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Hints{}, errors.New(errors.ErrCodeInvalidFormat, "unknown hint key %q", undecoded[0].String())
	}
	if err := h.Validate(); err != nil {
		return Hints{}, err
	}
	return h, nil
}

// Validate rejects feeder hints with an unknown direction.
func (h Hints) Validate() error {
	for _, f := range h.Feeders {
		if f.Direction != "" && topology.ParseDirection(f.Direction) == topology.DirectionUndefined {
			return errors.New(errors.ErrCodeInvalidInput, "feeder %s/%s: unknown direction %q", f.VoltageLevel, f.Node, f.Direction)
		}
	}
	return nil
}

// LoadHints reads a hint sidecar file.
func LoadHints(path string) (Hints, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hints{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	h, err := ReadHints(f)
	if err != nil {
		return Hints{}, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Encode writes h as TOML.
func (h Hints) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(h)
}

// Len returns the number of hints.
func (h Hints) Len() int { return len(h.Feeders) + len(h.Buses) }

// Apply writes the hints into the matching nodes of graphs. Hints whose
// voltage level or node is unknown, or that target a node of the wrong kind,
// are logged and reported as missing.
func (h Hints) Apply(graphs []*topology.Graph, logger *log.Logger) Report {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	byID := make(map[string]*topology.Graph, len(graphs))
	for _, g := range graphs {
		byID[g.ID()] = g
	}
	var r Report
	lookup := func(vl, name string, kind topology.Kind) *topology.Node {
		ref := topology.NodeRef{Graph: vl, Node: name}
		g, ok := byID[vl]
		if !ok {
			logger.Warn("hint for unknown voltage level", "ref", ref)
			r.Missing = append(r.Missing, ref)
			return nil
		}
		n, ok := g.Lookup(name)
		if !ok || n.Kind != kind {
			logger.Warn("hint for unknown node", "ref", ref, "kind", kind)
			r.Missing = append(r.Missing, ref)
			return nil
		}
		return n
	}

	for _, f := range h.Feeders {
		n := lookup(f.VoltageLevel, f.Node, topology.KindFeeder)
		if n == nil {
			continue
		}
		if f.Direction != "" {
			n.Direction = topology.ParseDirection(f.Direction)
		}
		if f.Order != nil {
			n.Order, n.HasOrder = *f.Order, true
		}
		r.Applied++
	}
	for _, b := range h.Buses {
		n := lookup(b.VoltageLevel, b.Node, topology.KindBus)
		if n == nil {
			continue
		}
		if b.Busbar > 0 {
			n.BusbarIndex = b.Busbar
		}
		if b.Section > 0 {
			n.SectionIndex = b.Section
		}
		r.Applied++
	}
	logger.Debug("hints applied", "applied", r.Applied, "missing", len(r.Missing))
	return r
}

// Extract collects the hints set on the feeders and busbars of graphs.
func Extract(graphs []*topology.Graph) Hints {
	var h Hints
	for _, g := range graphs {
		for _, n := range g.NodesOfKind(topology.KindFeeder) {
			if n.Direction == topology.DirectionUndefined && !n.HasOrder {
				continue
			}
			fh := FeederHint{VoltageLevel: g.ID(), Node: n.Name}
			if n.Direction != topology.DirectionUndefined {
				fh.Direction = n.Direction.String()
			}
			if n.HasOrder {
				order := n.Order
				fh.Order = &order
			}
			h.Feeders = append(h.Feeders, fh)
		}
		for _, n := range g.Buses() {
			if n.BusbarIndex == 0 && n.SectionIndex == 0 {
				continue
			}
			h.Buses = append(h.Buses, BusHint{VoltageLevel: g.ID(), Node: n.Name, Busbar: n.BusbarIndex, Section: n.SectionIndex})
		}
	}
	return h
}

// FromLayout derives the hints that pin the given layouts: every feeder gets
// its computed direction and its rank from left to right, every busbar its
// row and its section, the rank of its first slot among all busbar starts.
func FromLayout(vls []*layout.VoltageLevel) Hints {
	var h Hints
	for _, vl := range vls {
		g := vl.Graph
		feeders := g.NodesOfKind(topology.KindFeeder)
		slices.SortStableFunc(feeders, func(a, b *topology.Node) int {
			return cmp.Or(cmp.Compare(a.X, b.X), strings.Compare(a.Name, b.Name))
		})
		for i, n := range feeders {
			order := i + 1
			h.Feeders = append(h.Feeders, FeederHint{
				VoltageLevel: g.ID(),
				Node:         n.Name,
				Direction:    vl.Direction(n).String(),
				Order:        &order,
			})
		}

		var starts []int
		for _, p := range vl.Positions.Buses {
			starts = append(starts, p.Start)
		}
		slices.Sort(starts)
		starts = slices.Compact(starts)
		for _, n := range g.Buses() {
			p, ok := vl.Positions.Buses[n.ID]
			if !ok {
				continue
			}
			section, _ := slices.BinarySearch(starts, p.Start)
			h.Buses = append(h.Buses, BusHint{VoltageLevel: g.ID(), Node: n.Name, Busbar: p.Row, Section: section + 1})
		}
	}
	return h
}
