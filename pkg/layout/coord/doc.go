// Package coord converts grid positions into pixel coordinates.
//
// [Calculate] walks the block tree of every cell of a positioned voltage
// level and writes the X and Y of every node, plus the [block.Coord] of every
// block. The voltage level is laid out with its top-left corner at the
// origin; [Frame.Translate] moves it into place afterwards.
//
// Vertical metrics, from top to bottom:
//
//	padding.Top
//	top extent       extern cells above the busbars, intern body levels
//	stack height     hooks of the cells drawn on top
//	busbar rows      spaced by the vertical bus space
//	stack height     hooks of the cells drawn below
//	bottom extent
//	padding.Bottom
//
// Horizontally, slot h spans [h*cellWidth, (h+1)*cellWidth) after the left
// padding and vertical wires run through slot centers.
//
// Degenerate spans are normalized: distributing a length over children whose
// spans sum to zero gives every child a zero step.
package coord
