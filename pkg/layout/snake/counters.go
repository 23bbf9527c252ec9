package snake

import "github.com/matzehuels/singleline/pkg/topology"

type laneKey struct {
	vl  string
	dir topology.Direction
}

type sideKey struct {
	vl   string
	side topology.Side
}

// Counters holds the number of lines routed through every lane. The zero
// value is not usable; call [NewCounters].
type Counters struct {
	increment bool

	topBottom map[laneKey]int
	sides     map[sideKey]int
	global    map[topology.Side]int
}

// NewCounters returns empty counters that increment on every route.
func NewCounters() *Counters {
	c := &Counters{increment: true}
	c.Reset()
	return c
}

// Reset empties every lane.
func (c *Counters) Reset() {
	c.topBottom = make(map[laneKey]int)
	c.sides = make(map[sideKey]int)
	c.global = make(map[topology.Side]int)
}

// SetIncrement turns counting on or off. With counting off, routes reuse the
// current lane offsets, which re-routes lines without claiming new lanes.
func (c *Counters) SetIncrement(on bool) { c.increment = on }

// TopBottom returns the number of lines in the lane on side d of voltage
// level vl.
func (c *Counters) TopBottom(vl string, d topology.Direction) int {
	return c.topBottom[laneKey{vl, d}]
}

// Side returns the number of lines in the side lane of voltage level vl.
func (c *Counters) Side(vl string, s topology.Side) int {
	return c.sides[sideKey{vl, s}]
}

// Global returns the number of lines in global lane s.
func (c *Counters) Global(s topology.Side) int { return c.global[s] }

// MaxTopBottom returns the largest lane count on side d over all voltage
// levels.
func (c *Counters) MaxTopBottom(d topology.Direction) int {
	n := 0
	for k, v := range c.topBottom {
		if k.dir == d {
			n = max(n, v)
		}
	}
	return n
}

func (c *Counters) nextTopBottom(vl string, d topology.Direction) int {
	k := laneKey{vl, d}
	if c.increment {
		c.topBottom[k]++
	}
	return max(c.topBottom[k], 1)
}

// nextShared claims one lane on side d common to every voltage level of vls:
// the returned count is above all of theirs and becomes theirs.
func (c *Counters) nextShared(vls []string, d topology.Direction) int {
	n := 0
	for _, vl := range vls {
		n = max(n, c.topBottom[laneKey{vl, d}])
	}
	if c.increment {
		n++
		for _, vl := range vls {
			c.topBottom[laneKey{vl, d}] = n
		}
	}
	return max(n, 1)
}

func (c *Counters) nextSide(vl string, s topology.Side) int {
	k := sideKey{vl, s}
	if c.increment {
		c.sides[k]++
	}
	return max(c.sides[k], 1)
}

func (c *Counters) nextGlobal(s topology.Side) int {
	if c.increment {
		c.global[s]++
	}
	return max(c.global[s], 1)
}
