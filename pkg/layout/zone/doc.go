// Package zone lays out the substations of a zone on a matrix and routes the
// lines between them.
//
// # Matrix
//
// [NewMatrix] places substations row by row on a square-ish matrix of equal
// cells, each as large as the largest substation, separated by hallways. The
// matrix is backed by an [AvailabilityGrid] sampled every grid step: cell
// footprints, empty ones included, are obstacles and hallways are free.
//
// # Routing
//
// [AvailabilityGrid.FindShortestPath] is an A* search over the 4-connected
// grid with a Manhattan heuristic. Among shortest paths it prefers the one
// with the fewest turns. A routed path is marked on the grid: later lines may
// cross it at a right angle but never run along it or turn on it. Lines are
// routed one after the other, so the result depends on the order they are
// given in; for a given order it is deterministic.
//
// When no path exists the search returns [ErrNoPath] and no partial route.
package zone
