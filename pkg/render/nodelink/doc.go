// Package nodelink renders raw topology graphs as node-link diagrams.
//
// # Overview
//
// A node-link diagram shows the input of the layout engine as Graphviz lays
// it out: buses, switches and feeders as shaped nodes joined by undirected
// edges. It is a debugging view for topologies that fail to lay out or lay
// out unexpectedly, not a single-line diagram.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// [SubstationDOT] draws every voltage level of a substation as a cluster and
// adds the transformers and lines between them.
//
// Detailed labels carry the component type, the cell id once cells have been
// detected, and the direction, order and busbar position hints.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
