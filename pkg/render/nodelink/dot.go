package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/singleline/pkg/render"
	"github.com/matzehuels/singleline/pkg/topology"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the component type, the cell and the position hints to
	// node labels. When false, only the node name is shown.
	Detailed bool
}

// ToDOT converts a voltage-level graph to Graphviz DOT. The resulting string
// can be rendered with [RenderSVG], [RenderPDF] or [RenderPNG].
func ToDOT(g *topology.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	writeHeader(&buf)
	writeGraph(&buf, g, "", opts)
	buf.WriteString("}\n")
	return buf.String()
}

// SubstationDOT converts a substation to DOT: one cluster per voltage level,
// transformer middle nodes outside the clusters joined to their legs, and the
// lines between voltage levels as dashed edges.
func SubstationDOT(s *topology.Substation, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	writeHeader(&buf)
	writeSubstation(&buf, s, opts)
	buf.WriteString("}\n")
	return buf.String()
}

// ZoneDOT converts a zone to DOT: one cluster per substation laid out as in
// [SubstationDOT], plus the zone lines as bold dashed edges.
func ZoneDOT(z *topology.Zone, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	writeHeader(&buf)
	for _, s := range z.Substations {
		fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+s.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", s.ID)
		writeSubstation(&buf, s, opts)
		buf.WriteString("  }\n")
	}
	for _, l := range z.Lines {
		fmt.Fprintf(&buf, "  %q -- %q [style=\"dashed,bold\", label=%q];\n", l.From.String(), l.To.String(), l.Name)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeSubstation(buf *bytes.Buffer, s *topology.Substation, opts Options) {
	for _, g := range s.VoltageLevels {
		fmt.Fprintf(buf, "  subgraph %q {\n", "cluster_"+g.ID())
		fmt.Fprintf(buf, "    label=%q;\n    style=\"rounded,dashed\";\n", g.ID())
		writeGraph(buf, g, g.ID()+"/", opts)
		buf.WriteString("  }\n")
	}
	for _, t := range s.Transformers {
		fmt.Fprintf(buf, "  %q [label=%q, shape=doublecircle];\n", t.Name, t.Name)
		for _, leg := range t.Legs {
			fmt.Fprintf(buf, "  %q -- %q;\n", t.Name, leg.String())
		}
	}
	for _, l := range s.Lines {
		fmt.Fprintf(buf, "  %q -- %q [style=dashed, label=%q];\n", l.From.String(), l.To.String(), l.Name)
	}
}

func writeHeader(buf *bytes.Buffer) {
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

// writeGraph writes the nodes and edges of g, naming every node prefix+name.
func writeGraph(buf *bytes.Buffer, g *topology.Graph, prefix string, opts Options) {
	nodes := g.Nodes()
	topology.SortByName(nodes)
	for _, n := range nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(buf, "  %q [%s];\n", prefix+n.Name, strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(buf, "  %q -- %q;\n", prefix+g.Name(e.A), prefix+g.Name(e.B))
	}
}

func fmtLabel(n *topology.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{n.Name, n.ComponentType}
	if n.Cell >= 0 {
		parts = append(parts, "cell: "+strconv.Itoa(n.Cell))
	}
	if n.Direction != topology.DirectionUndefined {
		parts = append(parts, "direction: "+n.Direction.String())
	}
	if n.HasOrder {
		parts = append(parts, "order: "+strconv.Itoa(n.Order))
	}
	if n.IsBus() && n.BusbarIndex > 0 {
		parts = append(parts, fmt.Sprintf("position: %d.%d", n.BusbarIndex, n.SectionIndex))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *topology.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case topology.KindBus:
		attrs = append(attrs, "shape=box", "fillcolor=black", "fontcolor=white")
	case topology.KindSwitch:
		attrs = append(attrs, "shape=square")
		if n.Open {
			attrs = append(attrs, "style=\"filled,dashed\"")
		}
	case topology.KindFeeder:
		attrs = append(attrs, "shape=invtriangle")
	default:
		attrs = append(attrs, "shape=point", "xlabel="+strconv.Quote(label))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
