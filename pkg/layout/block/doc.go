// Package block defines the block trees cells are drawn from.
//
// A cell of a voltage level decomposes into primary blocks, each a chain of
// nodes:
//
//   - [LegPrimary]: bus, connector, hook. Connects a cell to a busbar.
//   - [FeederPrimary]: hook, feeder. Ends a cell on a feeder.
//   - [BodyPrimary]: anything in between.
//
// Primary blocks are merged into composite blocks: [Serial] chains,
// [BodyParallel] branches, [LegParallel] legs from several busbars joining on
// one hook. [Undefined] wraps what no pattern explains.
//
// # Position and Coord
//
// Every block carries a [Position] in abstract grid units and a [Coord] in
// pixels. [Size] computes spans bottom-up: serial blocks add their children's
// spans along their orientation and take the maximum across it, parallel
// blocks do the opposite. A vertical serial block of a leg, a three-node body
// and a feeder therefore spans one column and four rows:
//
//	Serial(UP)          H=1 V=4
//	  LegPrimary        H=1 V=1
//	  BodyPrimary       H=1 V=2
//	  FeederPrimary     H=1 V=1
//
// [CheckSpans] verifies that invariant over a whole tree. Coordinates are
// computed from the spans by the coord package.
package block
