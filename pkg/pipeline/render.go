package pipeline

import (
	"fmt"

	"github.com/matzehuels/singleline/pkg/graph"
	"github.com/matzehuels/singleline/pkg/render"
	"github.com/matzehuels/singleline/pkg/render/nodelink"
	"github.com/matzehuels/singleline/pkg/render/sink"
)

// Render generates output artifacts in the requested formats. Layout formats
// draw l; the DOT formats draw the raw topology t.
func Render(l graph.Layout, t graph.Topology, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	layoutSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var svgOpts []sink.SVGOption
		if opts.Labels {
			svgOpts = append(svgOpts, sink.WithLabels())
		}
		var err error
		svg, err = sink.RenderSVG(l, svgOpts...)
		return svg, err
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = sink.RenderJSON(l)
		case FormatSVG:
			data, err = layoutSVG()
		case FormatPNG:
			if data, err = layoutSVG(); err == nil {
				data, err = render.ToPNG(data, 2.0)
			}
		case FormatPDF:
			if data, err = layoutSVG(); err == nil {
				data, err = render.ToPDF(data)
			}
		case FormatDOT:
			var dot string
			if dot, err = DOT(t, opts); err == nil {
				data = []byte(dot)
			}
		case FormatDOTSVG:
			var dot string
			if dot, err = DOT(t, opts); err == nil {
				data, err = nodelink.RenderSVG(dot)
			}
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// DOT converts the raw topology t to Graphviz DOT.
func DOT(t graph.Topology, opts Options) (string, error) {
	in, err := Convert(t)
	if err != nil {
		return "", err
	}
	nopts := nodelink.Options{Detailed: opts.Detailed}
	switch {
	case in.VoltageLevel != nil:
		return nodelink.ToDOT(in.VoltageLevel, nopts), nil
	case in.Substation != nil:
		return nodelink.SubstationDOT(in.Substation, nopts), nil
	default:
		return nodelink.ZoneDOT(in.Zone, nopts), nil
	}
}
