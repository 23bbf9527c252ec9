package sink

import (
	"bytes"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/singleline/pkg/errors"
	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/topology"
)

const (
	busStyle      = "stroke:#1f2937;stroke-width:4;stroke-linecap:round"
	wireStyle     = "stroke:#374151;stroke-width:1;fill:none"
	edgeStyle     = "stroke:#2563eb;stroke-width:1.5;fill:none"
	breakerStyle  = "fill:#111827;stroke:#111827"
	switchStyle   = "fill:white;stroke:#111827;stroke-width:1"
	feederStyle   = "fill:white;stroke:#111827;stroke-width:1"
	dotStyle      = "fill:#374151"
	trafoStyle    = "fill:none;stroke:#b45309;stroke-width:1.5"
	frameStyle    = "fill:none;stroke:#d1d5db;stroke-dasharray:4,3"
	labelStyle    = "font-family:sans-serif;font-size:9px;fill:#374151"
	busLabelStyle = "font-family:sans-serif;font-size:10px;fill:#1f2937;font-weight:bold"
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels bool
	frames bool
	margin float64
}

// WithLabels writes the names of busbars and feeders.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithFrames outlines every voltage level and substation box.
func WithFrames() SVGOption { return func(r *svgRenderer) { r.frames = true } }

// WithMargin adds an empty border around the drawing.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// RenderSVG draws l as an SVG preview.
func RenderSVG(l graph.Layout, opts ...SVGOption) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	r := svgRenderer{margin: 10}
	for _, opt := range opts {
		opt(&r)
	}
	if r.margin < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "negative margin %v", r.margin)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(l.Width+2*r.margin), px(l.Height+2*r.margin))
	canvas.Title(l.ID)
	canvas.Gtransform("translate(" + ftoa(r.margin) + "," + ftoa(r.margin) + ")")

	for _, s := range l.Substations {
		r.substation(canvas, s)
	}
	for _, vl := range l.VoltageLevels {
		r.voltageLevel(canvas, vl)
	}
	if len(l.Edges) > 0 {
		canvas.Gid("zone-lines")
		for _, e := range l.Edges {
			polyline(canvas, e.Points, edgeStyle)
		}
		canvas.Gend()
	}

	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}

func (r *svgRenderer) substation(canvas *svg.SVG, s graph.PlacedSubstation) {
	canvas.Gid("substation-" + s.ID)
	if r.frames {
		canvas.Rect(px(s.X), px(s.Y), px(s.Width), px(s.Height), frameStyle)
	}
	for _, vl := range s.VoltageLevels {
		r.voltageLevel(canvas, vl)
	}
	for _, e := range s.Edges {
		polyline(canvas, e.Points, edgeStyle)
	}
	for _, t := range s.Transformers {
		transformer(canvas, t)
	}
	canvas.Gend()
}

func (r *svgRenderer) voltageLevel(canvas *svg.SVG, vl graph.PlacedVoltageLevel) {
	canvas.Gid("vl-" + vl.ID)
	if r.frames {
		canvas.Rect(px(vl.X), px(vl.Y), px(vl.Width), px(vl.Height), frameStyle)
	}

	nodes := make(map[string]graph.PlacedNode, len(vl.Nodes))
	for _, n := range vl.Nodes {
		nodes[n.ID] = n
	}
	buses := make(map[string]graph.BusSegment, len(vl.Buses))
	for _, b := range vl.Buses {
		buses[b.ID] = b
	}

	for _, w := range vl.Wires {
		a, aok := nodes[w.From]
		b, bok := nodes[w.To]
		if !aok || !bok {
			continue
		}
		wire(canvas, a, b, buses)
	}
	for _, b := range vl.Buses {
		canvas.Line(px(b.X1), px(b.Y), px(b.X2), px(b.Y), busStyle)
		if r.labels {
			canvas.Text(px(b.X1), px(b.Y-6), b.ID, busLabelStyle)
		}
	}
	for _, n := range vl.Nodes {
		r.node(canvas, n)
	}
	canvas.Gend()
}

// wire joins two nodes with an orthogonal polyline. A bus end attaches at the
// abscissa of the other node.
func wire(canvas *svg.SVG, a, b graph.PlacedNode, buses map[string]graph.BusSegment) {
	if bus, ok := buses[a.ID]; ok {
		canvas.Line(px(b.X), px(bus.Y), px(b.X), px(b.Y), wireStyle)
		return
	}
	if bus, ok := buses[b.ID]; ok {
		canvas.Line(px(a.X), px(bus.Y), px(a.X), px(a.Y), wireStyle)
		return
	}
	canvas.Polyline(
		[]int{px(a.X), px(a.X), px(b.X)},
		[]int{px(a.Y), px(b.Y), px(b.Y)},
		wireStyle)
}

func (r *svgRenderer) node(canvas *svg.SVG, n graph.PlacedNode) {
	x, y := px(n.X), px(n.Y)
	switch n.Kind {
	case topology.KindBus.String():
		return
	case topology.KindSwitch.String():
		style := switchStyle
		if n.Component == topology.ComponentBreaker {
			style = breakerStyle
		}
		canvas.Rect(x-4, y-4, 8, 8, style)
	case topology.KindFeeder.String():
		canvas.Circle(x, y, 6, feederStyle)
		if r.labels {
			dy := -10
			if n.Direction == topology.DirectionBottom.String() {
				dy = 18
			}
			canvas.Text(x, y+dy, n.ID, "text-anchor:middle;"+labelStyle)
		}
	default:
		canvas.Circle(x, y, 2, dotStyle)
	}
}

func transformer(canvas *svg.SVG, t graph.PlacedTransformer) {
	x, y := px(t.X), px(t.Y)
	if t.Kind == topology.KindMiddle3WT.String() {
		canvas.Circle(x-4, y-3, 7, trafoStyle)
		canvas.Circle(x+4, y-3, 7, trafoStyle)
		canvas.Circle(x, y+4, 7, trafoStyle)
		return
	}
	canvas.Circle(x, y-4, 7, trafoStyle)
	canvas.Circle(x, y+4, 7, trafoStyle)
}

func polyline(canvas *svg.SVG, pts []graph.Point, style string) {
	if len(pts) < 2 {
		return
	}
	xs, ys := make([]int, len(pts)), make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	canvas.Polyline(xs, ys, style)
}

func px(f float64) int { return int(math.Round(f)) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
