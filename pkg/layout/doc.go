// Package layout computes single-line diagram layouts at the three nesting
// levels: voltage level, substation and zone.
//
// # Voltage level
//
// [Context.LayoutVoltageLevel] runs the whole engine on one graph, in place:
//
//  1. refinement ([transform.Refine]) inserts bus connections and hooks
//  2. cell detection ([cell.Detect]) partitions the nodes into cells
//  3. decomposition ([cell.Decompose]) builds the block tree of every cell
//  4. position finding ([position.Finder]) orders busbars and cells on the grid
//  5. coordinate calculation ([coord.Calculate]) sets node coordinates
//
// # Substation
//
// [Context.LayoutSubstation] lays out every voltage level, places them side
// by side (or stacked, see [params.Vertical]) with their busbars aligned, and
// routes lines and transformer legs as snake lines. Routing runs twice: the
// first pass counts the lines of every lane, voltage-level paddings are
// enlarged to hold them, and the second pass routes on the final geometry.
//
// # Zone
//
// [Context.LayoutZone] lays out every substation, places them on a matrix and
// routes the lines between them through the hallways with A*. Lines that
// cannot be routed are logged and kept with an empty polyline.
//
// A [Context] holds the state of one layout run and must not be shared
// between concurrent runs.
package layout
