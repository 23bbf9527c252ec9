// Package snake routes the lines joining voltage levels of one substation.
//
// A snake line leaves a feeder along the direction of its cell, runs through
// one or more lanes in the padding around the voltage levels and enters the
// other feeder the same way. Every lane keeps a count of the lines already
// routed through it so that each new line gets its own offset: the n-th line
// of a top lane sits n vertical snake-line paddings above the voltage level.
//
// # Lanes
//
// [Counters] tracks three kinds of lanes:
//
//   - top and bottom lanes, per voltage level and [topology.Direction]
//   - side lanes, per voltage level and [topology.Side], running vertically
//     in the left padding of a voltage level of a horizontal substation
//   - global left and right lanes of a vertical substation
//
// Counters belong to one layout run. Substation layout routes twice: the
// first pass counts lines, the padding is then enlarged to hold them, and
// after [Counters.Reset] the second pass routes for good.
//
// # Routes
//
// In a horizontal substation, ends facing the same direction meet in a top or
// bottom lane (two bends); otherwise the line doglegs through a side lane
// (four bends). In a vertical substation, a bottom feeder facing a top feeder
// of the voltage level right below takes a shortcut through the gap between
// them; other lines dogleg through a global lane.
//
// [TwoWinding] and [ThreeWinding] turn routes between transformer legs into
// edges meeting at the transformer middle node.
package snake
