// Package transform normalizes raw voltage-level topologies before layout.
//
// Raw topologies from network models are noisy: fictitious connectivity
// nodes duplicate busbars, equipment hangs directly on busbars, and switches
// connect straight to feeders. [Refine] rewrites a [topology.Graph] in place
// so that after it runs:
//
//   - no two buses are adjacent (an internal node sits in between)
//   - every bus neighbor is a bus connection or a switch drawn on the busbar
//   - every bus-adjacent connector reaches the rest of its cell through an
//     internal hook node
//   - every feeder hangs from an internal hook node
//
// These guarantees let cell decomposition cut every cell into three kinds of
// primary chains: legs (bus, connector, hook), bodies and feeders (hook,
// feeder).
//
// # Steps
//
// The steps run in a fixed order. Each is exported so that it can be applied
// on its own, and each returns the number of nodes it rewrote:
//
//  1. [SubstituteFictitiousMirroringBuses]
//  2. [RemoveUnnecessaryFictitious] (optional)
//  3. [SubstituteSingularFictitiousByFeeder] (optional)
//  4. [RemoveFictitiousSwitches] (optional)
//  5. [ExtendBusesConnectedToBuses]
//  6. [InsertBusConnections]
//  7. [InsertHookNodes]
//
// Refinement is idempotent: running [Refine] on a refined graph rewrites
// nothing.
package transform
