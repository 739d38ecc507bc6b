package entity

import (
	"fmt"

	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

// The four graph kinds accepted by Open.
const (
	Directed         = "directed"
	StrictDirected   = "strictdirected"
	Undirected       = "undirected"
	StrictUndirected = "strictundirected"
)

// Desc describes a root graph: whether edges are directed and whether the
// graph is strict (at most one edge per tail/head pair).
type Desc struct {
	Directed bool
	Strict   bool
}

// ParseDesc converts one of the four graph kind strings into a Desc. An empty
// string selects "directed".
func ParseDesc(kind string) (Desc, error) {
	switch kind {
	case "", Directed:
		return Desc{Directed: true}, nil
	case StrictDirected:
		return Desc{Directed: true, Strict: true}, nil
	case Undirected:
		return Desc{}, nil
	case StrictUndirected:
		return Desc{Strict: true}, nil
	}
	return Desc{}, fmt.Errorf("graph kind %q: %w", kind, gerrors.ErrInvalidKind)
}

// String returns the kind string ParseDesc accepts for d.
func (d Desc) String() string {
	switch {
	case d.Directed && d.Strict:
		return StrictDirected
	case d.Directed:
		return Directed
	case d.Strict:
		return StrictUndirected
	default:
		return Undirected
	}
}
