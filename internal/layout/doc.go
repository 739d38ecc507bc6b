// Package layout hands finished graphs to an external Graphviz process.
//
// The Manager keeps at most one active layout per graph. Layout runs the
// chosen engine over the DOT text of the graph and keeps the positioned
// result; Render turns that result into the requested output format without
// laying the graph out again. The process itself is behind the Runner
// interface so tests and embedders can substitute it.
package layout
