// Package graph is the public façade of the graph runtime: it opens, reads
// and restores root graphs and hands out Graph, Node and Edge proxies.
//
// # Architecture
//
// A Runtime composes four collaborators:
//
//	┌──────────────────────────────────────┐
//	│            graph.Runtime             │
//	│   (find-or-create, auto-naming,      │
//	│    hierarchy queries, attributes)    │
//	└──────┬───────────────────┬───────────┘
//	       │ mutates           │ looks up proxies
//	       ▼                   ▼
//	┌──────────────┐   ┌───────────────────┐
//	│ entitystore  │   │     registry      │
//	│   (arena)    │   │ (proxy identity,  │
//	│              │   │ extended attrs)   │
//	└──────┬───────┘   └─────────▲─────────┘
//	       │ Inserted/Deleted    │ Register/Unregister
//	       └──────► bridge ──────┘
//
// Every structural change goes through the store, the store reports it to
// the bridge, and the bridge registers or kills proxies. The façade never
// creates or kills proxies itself; it only asks the registry for the proxy
// of a handle the store returned. That is what keeps one proxy per entity
// and turns every proxy of a deleted entity dead, including entities removed
// as a cascade (edges of a deleted node, everything under a closed root).
//
// # Dead proxies
//
// Every accessor of a dead proxy fails with gerrors.ErrStaleReference except
// Status, which reports "dead", and Type. Deleting or closing a dead proxy
// is a no-op.
//
// # Attributes
//
// Declared attributes are strings kept by the store and described by the
// universe's attrdict.Dictionary. Values that are not strings or numbers are
// kept in the registry's extended table of the entity instead. Reads consult
// declared attributes first and fall back to the extended table.
//
// # Concurrency
//
// A Runtime serializes every operation with one mutex. Walk iterators take
// the lock per step, so the graph may change between two steps; the visiting
// order is then unspecified, and a step whose previous entity was deleted
// yields gerrors.ErrStaleReference.
package graph
