// Package sink writes computed layouts in their output formats.
//
// A "sink" consumes a [graph.Layout] and produces bytes:
//
//   - [RenderJSON]: the layout interchange document
//   - [RenderSVG]: a preview drawing of busbars, nodes, wires and routed
//     edges, drawn with [github.com/ajstarks/svgo]
//
// The SVG preview is meant for inspecting a layout, not as a styled diagram.
// Component symbols are reduced to simple shapes per node kind:
//
//	bus        thick horizontal segment
//	switch     square (breakers filled, disconnectors hollow)
//	feeder     circle with its name
//	other      small dot
//
// Usage:
//
//	svg, err := sink.RenderSVG(l, sink.WithLabels())
//
// [graph.Layout]: github.com/matzehuels/singleline/pkg/graph.Layout
package sink
