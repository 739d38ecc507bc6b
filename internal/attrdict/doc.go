// Package attrdict implements the declared-attribute schema of one root graph
// universe.
//
// Every universe carries one Dictionary with three classes of symbols (graph,
// node, edge). A symbol is a key with a default string value. Declaring a key
// is a universe-wide schema change; redeclaring it only moves the default and
// never rewrites values already stored on entities. Subgraphs may shadow a
// default with a local override, which applies to entities created through
// that subgraph and is reported by Entries, but the global default stays.
//
// Keys starting with '.' form a reserved namespace for bookkeeping symbols
// and are rejected when they come from callers.
package attrdict
