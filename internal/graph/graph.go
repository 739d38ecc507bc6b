package graph

import (
	"fmt"
	"iter"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

// Graph is the proxy of a root graph or a subgraph.
type Graph struct {
	base
}

func (g *Graph) core() *base {
	if g == nil {
		return nil
	}
	return &g.base
}

// Kill marks the graph dead and releases its layout.
func (g *Graph) Kill() {
	g.base.Kill()
	g.rt.layouts.Free(g.h)
}

// Close destroys the graph. Subgraphs are closed first; closing a root also
// deletes every node and edge of its universe. Closing a dead graph is a
// no-op.
func (g *Graph) Close() error {
	g.rt.mu.Lock()
	defer g.rt.mu.Unlock()
	return g.close()
}

func (g *Graph) close() error {
	if g.dead {
		return nil
	}
	g.rt.layouts.Free(g.h)
	if err := g.rt.store.Delete(g.h); err != nil {
		return fmt.Errorf("close graph %q: %w", g.name, err)
	}
	g.rt.logger.Debug("Closed graph.", "name", g.name, "handle", g.h.String())
	return nil
}

func (g *Graph) lock() (func(), error) {
	g.rt.mu.Lock()
	if err := g.live(); err != nil {
		g.rt.mu.Unlock()
		return nil, err
	}
	return g.rt.mu.Unlock, nil
}

// Root returns the root graph of the hierarchy.
func (g *Graph) Root() (*Graph, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	h, err := g.rt.store.Root(g.h)
	if err != nil {
		return nil, err
	}
	return g.rt.graphProxy(h), nil
}

// Parent returns the parent graph, or nil for a root.
func (g *Graph) Parent() (*Graph, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	h, err := g.rt.store.Parent(g.h)
	if err != nil {
		return nil, err
	}
	return g.rt.graphProxy(h), nil
}

// IsRoot reports whether g is a root graph.
func (g *Graph) IsRoot() (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	parent, err := g.rt.store.Parent(g.h)
	return parent.IsZero(), err
}

// IsStrict reports whether the universe of g is strict.
func (g *Graph) IsStrict() (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	desc, err := g.rt.store.Desc(g.h)
	return desc.Strict, err
}

// IsDirected reports whether the universe of g is directed.
func (g *Graph) IsDirected() (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	desc, err := g.rt.store.Desc(g.h)
	return desc.Directed, err
}

// Kind returns the kind string of the universe of g.
func (g *Graph) Kind() (string, error) {
	unlock, err := g.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	desc, err := g.rt.store.Desc(g.h)
	return desc.String(), err
}

// NNodes returns the number of nodes of g.
func (g *Graph) NNodes() (int, error) {
	unlock, err := g.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return g.rt.store.NodeCount(g.h)
}

// NEdges returns the number of edges of g.
func (g *Graph) NEdges() (int, error) {
	unlock, err := g.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return g.rt.store.EdgeCount(g.h)
}

// Subgraph finds the subgraph called name, creating it unless nocreate.
func (g *Graph) Subgraph(name string, nocreate bool) (*Graph, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return g.subgraph(name, nocreate)
}

func (g *Graph) subgraph(name string, nocreate bool) (*Graph, error) {
	if nocreate {
		h, found, err := g.rt.store.FindSubgraph(g.h, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("subgraph %q of %q: %w", name, g.name, gerrors.ErrNotFound)
		}
		return g.rt.graphProxy(h), nil
	}
	h, _, err := g.rt.store.CreateSubgraph(g.h, name)
	if err != nil {
		return nil, err
	}
	return g.rt.graphProxy(h), nil
}

// NextGraph returns the subgraph following prev, or the first one when prev
// is nil. It returns nil after the last subgraph.
func (g *Graph) NextGraph(prev *Graph) (*Graph, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var cursor entity.Handle
	if prev != nil {
		if _, err := g.rt.own(prev); err != nil {
			return nil, err
		}
		cursor = prev.h
	}
	h, err := g.rt.store.NextSubgraph(g.h, cursor)
	if err != nil {
		return nil, err
	}
	return g.rt.graphProxy(h), nil
}

// Walk iterates over the immediate subgraphs of g.
func (g *Graph) Walk() iter.Seq2[*Graph, error] {
	return walk(g.NextGraph)
}

// Node finds the node called name, creating it unless nocreate. An empty
// name creates a node named "node@<id>".
func (g *Graph) Node(name string, nocreate bool) (*Node, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	n, _, err := g.node(name, nocreate)
	return n, err
}

// node resolves name, reporting whether the node had to be created.
func (g *Graph) node(name string, nocreate bool) (*Node, bool, error) {
	if name != "" {
		h, found, err := g.rt.store.FindNode(g.h, name)
		if err != nil {
			return nil, false, err
		}
		if found {
			return g.rt.nodeProxy(h), false, nil
		}
	}
	if nocreate {
		return nil, false, fmt.Errorf("node %q in %q: %w", name, g.name, gerrors.ErrNotFound)
	}
	h, created, err := g.rt.store.CreateNode(g.h, name)
	if err != nil {
		return nil, false, err
	}
	return g.rt.nodeProxy(h), created, nil
}

// IDNode returns the member node with the given id.
func (g *Graph) IDNode(id uint64) (*Node, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	h, found, err := g.rt.store.NodeByID(g.h, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("node id %d in %q: %w", id, g.name, gerrors.ErrNotFound)
	}
	return g.rt.nodeProxy(h), nil
}

// NextNode returns the node following prev, or the first one when prev is
// nil. It returns nil after the last node.
func (g *Graph) NextNode(prev *Node) (*Node, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var cursor entity.Handle
	if prev != nil {
		if _, err := g.rt.own(prev); err != nil {
			return nil, err
		}
		cursor = prev.h
	}
	h, err := g.rt.store.NextNode(g.h, cursor)
	if err != nil {
		return nil, err
	}
	return g.rt.nodeProxy(h), nil
}

// WalkNodes iterates over the nodes of g in id order.
func (g *Graph) WalkNodes() iter.Seq2[*Node, error] {
	return walk(g.NextNode)
}

// NodeRef names an edge endpoint: a *Node or a NodeName.
type NodeRef interface {
	nodeRef()
}

// NodeName refers to a node by name; Edge creates it when missing.
type NodeName string

func (NodeName) nodeRef() {}
func (*Node) nodeRef()    {}

// Edge finds or creates an edge from tail to head and returns it with both
// endpoints. Endpoints given by name are created when missing, and deleted
// again if no edge results. New edges are named "edge@<id>"; label sets the
// "label" attribute, and in a strict graph an existing edge between the pair
// is returned with its label updated. With nocreate the call only looks up an
// edge whose name or label matches label and changes nothing.
func (g *Graph) Edge(tail, head NodeRef, label string, nocreate bool) (*Edge, *Node, *Node, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, nil, nil, err
	}
	defer unlock()
	return g.edge(tail, head, label, nocreate)
}

func (g *Graph) edge(tail, head NodeRef, label string, nocreate bool) (e *Edge, t *Node, h *Node, err error) {
	var created []*Node
	defer func() {
		if err == nil {
			return
		}
		for _, n := range created {
			if !n.dead {
				_ = g.rt.store.Delete(n.h)
			}
		}
	}()

	resolve := func(ref NodeRef) (*Node, error) {
		switch r := ref.(type) {
		case *Node:
			if _, err := g.rt.own(r); err != nil {
				return nil, err
			}
			if !r.h.SameUniverse(g.h) {
				return nil, fmt.Errorf("node %q is not in the universe of %q: %w", r.name, g.name, gerrors.ErrCrossGraph)
			}
			return r, nil
		case NodeName:
			n, isNew, err := g.node(string(r), nocreate)
			if err != nil {
				return nil, err
			}
			if isNew {
				created = append(created, n)
			}
			return n, nil
		}
		return nil, fmt.Errorf("edge endpoint %T: %w", ref, gerrors.ErrInvalidValue)
	}
	// Proxies are checked before any name is resolved so a cross-graph
	// call leaves nothing behind.
	for _, ref := range []NodeRef{tail, head} {
		if n, ok := ref.(*Node); ok {
			if _, err := resolve(n); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	if t, err = resolve(tail); err != nil {
		return nil, nil, nil, err
	}
	if h, err = resolve(head); err != nil {
		return nil, nil, nil, err
	}

	if nocreate {
		eh, found, err := g.rt.store.FindEdge(g.h, t.h, h.h, label)
		if err != nil {
			return nil, nil, nil, err
		}
		if !found {
			return nil, nil, nil, fmt.Errorf("edge %q -> %q in %q: %w", t.name, h.name, g.name, gerrors.ErrNotFound)
		}
		return g.rt.edgeProxy(eh), t, h, nil
	}

	eh, _, err := g.rt.store.CreateEdge(g.h, t.h, h.h, "")
	if err != nil {
		return nil, nil, nil, err
	}
	if label != "" {
		if err := g.rt.store.SetAttr(eh, "label", label); err != nil {
			return nil, nil, nil, err
		}
	}
	return g.rt.edgeProxy(eh), t, h, nil
}

// FindEdge looks up an edge from tail to head without creating anything. A
// non-empty name must match the edge's name or label.
func (g *Graph) FindEdge(tail, head NodeRef, name string) (*Edge, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	lookup := func(ref NodeRef) (*Node, error) {
		switch r := ref.(type) {
		case *Node:
			if _, err := g.rt.own(r); err != nil {
				return nil, err
			}
			return r, nil
		case NodeName:
			n, _, err := g.node(string(r), true)
			return n, err
		}
		return nil, fmt.Errorf("edge endpoint %T: %w", ref, gerrors.ErrInvalidValue)
	}
	t, err := lookup(tail)
	if err != nil {
		return nil, err
	}
	h, err := lookup(head)
	if err != nil {
		return nil, err
	}
	eh, found, err := g.rt.store.FindEdge(g.h, t.h, h.h, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("edge %q -> %q named %q in %q: %w", t.name, h.name, name, g.name, gerrors.ErrNotFound)
	}
	return g.rt.edgeProxy(eh), nil
}

// Delete destroys obj, which must belong to the universe of g: a graph is
// closed, a node is deleted with its edges, an edge is deleted. Deleting a
// dead object is a no-op.
func (g *Graph) Delete(obj Object) error {
	unlock, err := g.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if obj == nil || obj.core() == nil {
		return fmt.Errorf("delete nil object: %w", gerrors.ErrInvalidValue)
	}
	b := obj.core()
	if b.rt != g.rt {
		return fmt.Errorf("delete %s: %w", b, gerrors.ErrCrossGraph)
	}
	if b.dead {
		return nil
	}
	if !b.h.SameUniverse(g.h) {
		return fmt.Errorf("delete %s from %q: %w", b, g.name, gerrors.ErrCrossGraph)
	}
	return g.rt.delete(obj)
}

// delete funnels every deletion through the store.
func (rt *Runtime) delete(obj Object) error {
	b := obj.core()
	if b.dead {
		return nil
	}
	if sg, ok := obj.(*Graph); ok {
		return sg.close()
	}
	if err := rt.store.Delete(b.h); err != nil {
		return fmt.Errorf("delete %s: %w", b, err)
	}
	return nil
}

// Insert makes an existing node or edge of the same universe a member of g.
// Inserting an edge inserts its endpoints too.
func (g *Graph) Insert(obj Object) error {
	unlock, err := g.lock()
	if err != nil {
		return err
	}
	defer unlock()
	b, err := g.rt.own(obj)
	if err != nil {
		return err
	}
	return g.rt.store.Insert(g.h, b.h)
}

// Contains reports whether obj is reachable through the membership of g:
// g itself, one of its descendant subgraphs, or a node or edge member.
func (g *Graph) Contains(obj Object) (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	b, err := g.rt.own(obj)
	if err != nil {
		return false, err
	}
	return g.rt.store.Contains(g.h, b.h)
}

// IsRootMember reports whether obj belongs to the universe of g's root,
// whether or not it is a member of g itself.
func (g *Graph) IsRootMember(obj Object) (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	b, err := g.rt.own(obj)
	if err != nil {
		return false, err
	}
	return b.h.SameUniverse(g.h), nil
}

// walk adapts a "successor of previous" cursor to an iterator. Iteration
// stops after the first error.
func walk[T comparable](next func(prev T) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero, prev T
		for {
			cur, err := next(prev)
			if err != nil {
				yield(zero, err)
				return
			}
			if cur == zero {
				return
			}
			if !yield(cur, nil) {
				return
			}
			prev = cur
		}
	}
}
