// Package pkg provides the libraries of singleline, a layout engine for
// substation single-line diagrams.
//
// # Overview
//
// A single-line diagram draws the electrical topology of a substation:
// busbars as horizontal bars, feeders hanging above or below them through
// switches, couplings between busbars, and the lines and transformers that
// join voltage levels. singleline computes where every element goes.
//
// The pkg directory is organized by concern:
//
//  1. [topology] - the graph model and its refinement passes
//  2. [layout] - cell detection, block positioning, coordinates and routing
//  3. [graph] - JSON documents for topologies and layouts
//  4. [pipeline] - orchestration (read → layout → render) with caching
//  5. [render] - SVG, JSON and Graphviz outputs
//  6. [cache], [errors], [io], [observability] - supporting infrastructure
//
// # Architecture
//
// The data flow of one voltage level:
//
//	topology document
//	     ↓
//	[topology/transform] refine: fictitious nodes, switches on busbars
//	     ↓
//	[layout/cell] detect extern, intern and shunt cells
//	     ↓
//	[layout/position] merge busbar sets, place blocks on the grid
//	     ↓
//	[layout/coord] compute node coordinates
//	     ↓
//	[layout/snake] route lines and transformer legs
//
// Substations stack their voltage levels and route the edges between them;
// zones arrange substations on a matrix and route lines with A*.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/singleline/pkg/graph"
//	    "github.com/matzehuels/singleline/pkg/layout"
//	    "github.com/matzehuels/singleline/pkg/layout/params"
//	)
//
//	t, _ := graph.ReadTopologyFile("substation.json")
//	sub, _ := graph.ToSubstation(*t.Substation)
//
//	ctx := layout.NewContext(params.Default(), nil)
//	s, err := ctx.LayoutSubstation(sub)
//	if err != nil {
//	    return err
//	}
//	return graph.WriteLayoutFile(graph.ExportSubstation(s), "substation.layout.json")
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "zone.json",
//	    Formats: []string{"json", "svg"},
//	})
package pkg
