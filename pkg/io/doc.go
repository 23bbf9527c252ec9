// Package io reads and writes layout hint sidecars.
//
// # Overview
//
// A hint sidecar is a TOML file kept next to a topology export. It pins the
// parts of a layout that the topology source does not carry: the side of the
// busbars a feeder is drawn on, the order of feeders, and the busbar and
// section index of each busbar. Sidecars let operators fix a diagram without
// touching the topology itself.
//
// # Format
//
//	[[feeder]]
//	voltage_level = "vl1"
//	node = "load"
//	direction = "bottom"
//	order = 3
//
//	[[bus]]
//	voltage_level = "vl1"
//	node = "bbs1"
//	busbar = 1
//	section = 2
//
// Every field but voltage_level and node is optional. Unknown keys are
// rejected.
//
// # Applying Hints
//
// [Hints.Apply] writes the hints into the voltage-level graphs before the
// layout runs. Hints naming a voltage level or node that does not exist are
// reported in the returned [Report] and logged as warnings; the others still
// apply.
//
//	h, err := io.LoadHints("station.hints.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report := h.Apply(graphs, logger)
//
// # Export
//
// [Extract] collects the hints currently set on a set of graphs, and
// [Hints.Encode] writes them back as TOML. [FromLayout] derives hints from
// laid-out voltage levels instead: the computed feeder directions, the feeder
// order from left to right, and the busbar rows and sections, so that a
// layout stays put when the topology later grows.
//
// # Concurrency
//
// Apply mutates the graphs it is given and must not run concurrently with
// other users of those graphs.
package io
