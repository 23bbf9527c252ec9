// Package position assigns abstract grid positions to the cells of one
// voltage level.
//
// # Overview
//
// Cells from [cell.Detect] and [cell.Decompose] arrive with sized block trees
// but no place in the diagram. This package decides where every bus and
// every cell goes, in integer grid units:
//
//   - horizontally, a slot index H counted from the left of the voltage level
//   - vertically, a busbar row V counted from 1 at the top
//
// Pixel coordinates are computed later by the coord package.
//
// # Leg-bus sets
//
// A [LegBusSet] gathers the buses that a group of cells hang from. Every
// extern cell and every one-leg intern cell contributes the set of its buses.
// A multi-leg intern cell joins an existing set containing all its buses (it
// is then drawn vertically) or contributes one set per leg group. Sets whose
// buses are a subset of another set's buses are absorbed into it, so that the
// final sets are pairwise non-nested.
//
// # Clustering
//
// Leg-bus sets are merged pairwise into a single ordered [Cluster]. Each merge
// joins one side of a cluster to one side of another, reversing a cluster when
// its left side must face the seam. Busbar rows are tracked as
// [HorizontalBusSet] values that grow across merges. The choice of which pair
// to merge next is delegated to a [MergeStrategy]:
//
//   - [Greedy] links the pair with the strongest electrical links (flat
//     couplings, shared buses, shunts, other intern cells)
//   - [Hints] orders sets by the busbar and section indices of their buses
//
// Only determinism is guaranteed: the same graph always produces the same
// cluster.
//
// # Walk
//
// Once clustered, [Find] walks the sets from left to right, handing out slots
// to the legs of crossover cells, to extern cells and to vertical intern
// cells. Flat cells take the gap between two adjacent sets. The walk records
// the slot range of every bus and the total number of slots, and stacks
// intern bodies into levels above or below the busbars.
package position
