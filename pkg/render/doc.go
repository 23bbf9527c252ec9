// Package render turns layouts and topologies into viewable artifacts.
//
// The subpackages do the work:
//
//   - [sink] writes a computed [graph.Layout] as JSON or as an SVG preview
//     with busbars, nodes and routed edges
//   - [nodelink] writes the raw topology graph of a voltage level as
//     Graphviz DOT and renders it in-process, which helps to debug inputs
//     before any layout runs
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := sink.RenderSVG(l)
//	png, err := render.ToPNG(svg, 2.0)
//
// [sink]: github.com/matzehuels/singleline/pkg/render/sink
// [nodelink]: github.com/matzehuels/singleline/pkg/render/nodelink
// [graph.Layout]: github.com/matzehuels/singleline/pkg/graph.Layout
package render
