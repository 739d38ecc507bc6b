package entity

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

// Kind tags an entity as a graph, a node or an edge. It doubles as the
// attribute class for declared attributes.
type Kind uint8

const (
	// KindGraph is a root graph or a subgraph.
	KindGraph Kind = iota
	// KindNode is a node of a root graph universe.
	KindNode
	// KindEdge is an edge between two nodes of the same universe.
	KindEdge
)

// Kinds lists every entity kind in declaration order.
var Kinds = []Kind{KindGraph, KindNode, KindEdge}

// String returns "graph", "node" or "edge".
func (k Kind) String() string {
	switch k {
	case KindGraph:
		return "graph"
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k <= KindEdge
}

// ParseKind converts "graph", "node" or "edge" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "graph":
		return KindGraph, nil
	case "node":
		return KindNode, nil
	case "edge":
		return KindEdge, nil
	}
	return 0, fmt.Errorf("entity kind %q: %w", s, gerrors.ErrInvalidKind)
}

// Direction selects which incident edges of a node are visited or counted.
type Direction uint8

const (
	// Both selects in-edges and out-edges.
	Both Direction = iota
	// In selects edges whose head is the node.
	In
	// Out selects edges whose tail is the node.
	Out
)

// ParseDirection accepts "all", "in", "out" and the legacy "*a", "*i", "*o".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "all", "*a":
		return Both, nil
	case "in", "*i":
		return In, nil
	case "out", "*o":
		return Out, nil
	}
	return 0, fmt.Errorf("degree mode %q: %w", s, gerrors.ErrInvalidFormat)
}
