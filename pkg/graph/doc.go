// Package graph provides the wire format for substation topologies and their
// layouts.
//
// This package defines the canonical JSON representation of singleline's
// inputs and outputs, used for files, API requests and responses, and cache
// entries.
//
// # Architecture
//
// The package sits at the serialization boundary between the internal
// representations and external formats:
//
//   - [Topology], [Layout]: serialization types (this package)
//   - pkg/topology: arena graphs, substations and zones
//   - pkg/layout: laid-out voltage levels, substations and zones
//
// Use [ToGraph], [ToSubstation] and [ToZone] to build the internal model and
// [ExportVoltageLevel], [ExportSubstation] and [ExportZone] to serialize a
// layout.
//
// # Topology Format
//
// A topology holds exactly one of a zone, a substation or a bare voltage
// level:
//
//	{
//	  "voltage_level": {
//	    "id": "vl1",
//	    "nodes": [
//	      {"id": "bbs", "kind": "bus"},
//	      {"id": "d", "kind": "switch", "switch_kind": "disconnector"},
//	      {"id": "load", "kind": "feeder", "feeder_kind": "load", "direction": "top"}
//	    ],
//	    "edges": [{"from": "bbs", "to": "d"}, {"from": "d", "to": "load"}]
//	  }
//	}
//
// Node kinds are the wire names of [topology.Kind]: bus, switch, feeder,
// internal, fictitious, bus_connection, middle_2wt and middle_3wt.
// Cross-graph references ([Ref]) name a voltage level and a node inside it.
//
// # Layout Format
//
// A [Layout] carries the scope it was computed for, the overall size, and the
// placed voltage levels (bare, or grouped in substations). Each voltage level
// lists its nodes with coordinates, its busbar segments, its cells and the
// wires between its nodes. Routed lines and transformer legs are polylines.
//
// # Concurrency
//
// All functions are safe for concurrent use.
package graph
