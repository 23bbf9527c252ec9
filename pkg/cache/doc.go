// Package cache stores layout results keyed by the topology and the
// parameters they were computed from.
//
// # Backends
//
// Every backend implements [Cache]:
//
//   - [NullCache]: never stores anything, for one-shot runs
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: a bounded LRU, for the HTTP server
//   - [RedisCache]: shared across server instances
//   - [MongoCache]: a collection with a TTL index, for long-lived layouts
//
// [Open] builds a backend from a [Config], which is how the CLI and the
// server choose one.
//
// # Keys
//
// A [Keyer] derives keys from content hashes:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash(topologyJSON), cache.LayoutKeyOpts{
//	    Scope:      "substation",
//	    ParamsHash: cache.Hash(paramsTOML),
//	})
//
// [NewScopedKeyer] prefixes every key, for tenants sharing one backend.
//
// # Concurrency
//
// All backends are safe for concurrent use.
package cache
