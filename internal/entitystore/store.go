// Package entitystore defines the contract of the native graph store: the
// graphs, nodes and edges of every root-graph universe, their containment
// relationships, and the observer callbacks fired on every structural
// mutation.
//
// # Universes
//
// Open creates a root graph together with a fresh universe. Every subgraph,
// node and edge created beneath that root lives in the same universe and is
// addressed by an entity.Handle carrying the universe number, so two
// handles from different roots can never be confused. A node reached through
// any subgraph of the hierarchy is the same entity with the same handle.
//
// # Observers
//
// The observer passed to Open is installed on the root only; subgraphs share
// it. The store invokes it synchronously, inside the mutating call:
//   - Inserted after an entity becomes a member of a graph (creation included;
//     auto-generated names are already assigned when it fires).
//   - Deleted before the entity's slot is released, so the observer may still
//     read its name and id.
//   - Modified after a declared attribute value changed on one entity.
//
// Observers may call read-only methods of the store from inside a callback.
//
// # Concurrency
//
// Implementations are not required to be safe for concurrent use. The graph
// façade serializes every call with a single lock, because observer callbacks
// re-enter the store.
//
// # Iteration
//
// The Next* methods are "successor of previous" cursors: a zero prev handle
// yields the first entity, a zero result marks the end. Mutating the graph
// between two calls has unspecified ordering effects; deleting the entity
// used as prev makes the cursor fail with gerrors.ErrStaleReference.
package entitystore

import (
	"github.com/specialistvlad/proxygraph/internal/attrdict"
	"github.com/specialistvlad/proxygraph/internal/entity"
)

// Observer receives structural notifications from the store.
type Observer interface {
	// Inserted reports that h became a member of graph g. For a graph entity
	// g is its parent, or h itself for a root.
	Inserted(g, h entity.Handle)
	// Deleted reports that h is about to be destroyed. g is the root of h.
	Deleted(g, h entity.Handle)
	// Modified reports that the declared attribute key of h changed.
	Modified(h entity.Handle, key string)
}

// Store is the native graph store. Unless stated otherwise every method fails
// with gerrors.ErrStaleReference when given a handle whose entity was deleted.
type Store interface {
	// Open creates a root graph in a new universe, declares the reserved
	// bookkeeping attribute on all classes and the "label" edge attribute,
	// and installs obs. obs may be nil.
	Open(name string, desc entity.Desc, obs Observer) (entity.Handle, error)

	// Alive reports whether h refers to a live entity.
	Alive(h entity.Handle) bool

	// Desc returns the directedness and strictness of the universe of h.
	Desc(h entity.Handle) (entity.Desc, error)

	// Name returns the current name of h.
	Name(h entity.Handle) (string, error)

	// ID returns the stable numeric id of h. Ids are unique per kind within
	// a universe and never reused.
	ID(h entity.Handle) (uint64, error)

	// Rename changes the name of h. An empty name re-applies the automatic
	// "node@<id>" or "edge@<id>" name; graphs cannot be renamed to "".
	// Node names are unique in the universe and subgraph names among their
	// siblings; collisions fail with gerrors.ErrNameInUse.
	Rename(h entity.Handle, name string) error

	// Root returns the root graph of the universe of h.
	Root(h entity.Handle) (entity.Handle, error)

	// Parent returns the parent of graph g, or the zero handle for a root.
	Parent(g entity.Handle) (entity.Handle, error)

	// Home returns the graph a node or edge was created through, falling back
	// to the root once that graph is gone. For a graph it returns g itself.
	Home(h entity.Handle) (entity.Handle, error)

	// FindSubgraph looks up the immediate child of g called name.
	FindSubgraph(g entity.Handle, name string) (entity.Handle, bool, error)

	// CreateSubgraph returns the child of g called name, creating it when
	// missing. created reports whether a new subgraph was made.
	CreateSubgraph(g entity.Handle, name string) (h entity.Handle, created bool, err error)

	// NextSubgraph returns the child of g following prev in creation order.
	NextSubgraph(g, prev entity.Handle) (entity.Handle, error)

	// FindNode looks up the node called name among the members of g.
	FindNode(g entity.Handle, name string) (entity.Handle, bool, error)

	// CreateNode returns the node called name, making it a member of g and
	// of every ancestor of g. An existing node of the universe is inserted
	// rather than duplicated. An empty name creates a new node named
	// "node@<id>".
	CreateNode(g entity.Handle, name string) (h entity.Handle, created bool, err error)

	// NodeByID looks up a member of g by its id.
	NodeByID(g entity.Handle, id uint64) (entity.Handle, bool, error)

	// NextNode returns the member node of g following prev in id order.
	NextNode(g, prev entity.Handle) (entity.Handle, error)

	// FindEdge looks up a member edge of g from tail to head. Undirected
	// universes match both orientations. A non-empty name must equal the
	// edge's name or its label.
	FindEdge(g, tail, head entity.Handle, name string) (entity.Handle, bool, error)

	// CreateEdge creates an edge from tail to head in g. In a strict universe
	// an existing edge between the pair is returned instead (created is
	// false). Both endpoints become members of g and its ancestors. An empty
	// name yields "edge@<id>". Endpoints of another universe fail with
	// gerrors.ErrCrossGraph.
	CreateEdge(g, tail, head entity.Handle, name string) (h entity.Handle, created bool, err error)

	// Endpoints returns the tail and head of edge e.
	Endpoints(e entity.Handle) (tail, head entity.Handle, err error)

	// NextEdge returns the edge of n following prev among the member edges of
	// g selected by dir: out-edges first, then in-edges, each in id order.
	// With dir Both a self-loop is visited once.
	NextEdge(g, n, prev entity.Handle, dir entity.Direction) (entity.Handle, error)

	// Degree counts the member edges of g incident to n selected by dir.
	Degree(g, n entity.Handle, dir entity.Direction) (int, error)

	// Insert makes an existing node or edge of the same universe a member of
	// subgraph g and its ancestors. Inserting an edge inserts its endpoints.
	Insert(g, h entity.Handle) error

	// Delete destroys h. Deleting a graph deletes its subgraphs first,
	// deepest first; deleting a root additionally deletes every node, and
	// deleting a node deletes every incident edge first. Deleting a node or
	// edge through the store removes it from the whole universe.
	Delete(h entity.Handle) error

	// Contains reports whether h is g itself, a descendant subgraph of g, or
	// a node or edge member of g.
	Contains(g, h entity.Handle) (bool, error)

	// NodeCount and EdgeCount return the number of members of g.
	NodeCount(g entity.Handle) (int, error)
	EdgeCount(g entity.Handle) (int, error)

	// Dict returns the attribute dictionary of the universe of h.
	Dict(h entity.Handle) (*attrdict.Dictionary, error)

	// Attr returns the value of the declared attribute key on h. Nodes and
	// edges start with the overrides of the subgraph chain they were created
	// through; anything never set reports the current default. Graphs report
	// their own value or the nearest override of an ancestor. ok is false
	// when key is not declared for the kind of h.
	Attr(h entity.Handle, key string) (value string, ok bool, err error)

	// SetAttr stores the value of a declared attribute on h and fires
	// Modified. Undeclared keys fail with gerrors.ErrNotFound.
	SetAttr(h entity.Handle, key, value string) error
}
