// Package arena provides the in-memory implementation of entitystore.Store.
//
// Each root graph owns a universe: three generation-checked slot tables
// (graphs, nodes, edges), per-kind id counters, the node name index and the
// attribute dictionary. Handles are slot index plus generation, so a handle
// that outlives its entity is detected instead of aliasing a newer entity
// that reuses the slot. Member sets are kept sorted by id, which gives the
// Next* cursors a stable order without a linked structure.
//
// The arena has no lock of its own; see entitystore for the concurrency
// contract.
package arena
