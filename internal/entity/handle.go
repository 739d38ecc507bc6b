package entity

import "fmt"

// Handle identifies an entity inside the arena of its root-graph universe.
// Index is the slot in the per-kind table and Gen the generation the slot had
// when the entity was created, so a handle to a deleted entity never matches
// a newer entity that reuses the slot. The zero Handle is never issued.
type Handle struct {
	Universe uint32
	Kind     Kind
	Index    uint32
	Gen      uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.Gen == 0
}

// SameUniverse reports whether h and other live in the same root graph.
func (h Handle) SameUniverse(other Handle) bool {
	return !h.IsZero() && !other.IsZero() && h.Universe == other.Universe
}

// String renders the handle as "u<universe>/<kind>[<index>]#<gen>".
func (h Handle) String() string {
	if h.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("u%d/%s[%d]#%d", h.Universe, h.Kind, h.Index, h.Gen)
}
