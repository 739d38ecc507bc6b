package graph

import (
	"iter"

	"github.com/specialistvlad/proxygraph/internal/entity"
)

// Node is the proxy of a node.
type Node struct {
	base
}

func (n *Node) core() *base {
	if n == nil {
		return nil
	}
	return &n.base
}

func (n *Node) lock() (func(), error) {
	n.rt.mu.Lock()
	if err := n.live(); err != nil {
		n.rt.mu.Unlock()
		return nil, err
	}
	return n.rt.mu.Unlock, nil
}

// Graph returns the graph the node was created through, or the root once
// that graph is closed.
func (n *Node) Graph() (*Graph, error) {
	unlock, err := n.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return n.home()
}

func (n *Node) home() (*Graph, error) {
	h, err := n.rt.store.Home(n.h)
	if err != nil {
		return nil, err
	}
	return n.rt.graphProxy(h), nil
}

// Degree counts the edges of the node selected by dir across the universe.
func (n *Node) Degree(dir entity.Direction) (int, error) {
	unlock, err := n.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	root, err := n.rt.store.Root(n.h)
	if err != nil {
		return 0, err
	}
	return n.rt.store.Degree(root, n.h, dir)
}

// Edge creates or finds an edge from the node to head in the node's graph.
// See Graph.Edge.
func (n *Node) Edge(head NodeRef, label string, nocreate bool) (*Edge, *Node, *Node, error) {
	unlock, err := n.lock()
	if err != nil {
		return nil, nil, nil, err
	}
	defer unlock()
	g, err := n.home()
	if err != nil {
		return nil, nil, nil, err
	}
	return g.edge(n, head, label, nocreate)
}

func (n *Node) next(prev *Edge, dir entity.Direction) (*Edge, error) {
	unlock, err := n.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var cursor entity.Handle
	if prev != nil {
		if _, err := n.rt.own(prev); err != nil {
			return nil, err
		}
		cursor = prev.h
	}
	root, err := n.rt.store.Root(n.h)
	if err != nil {
		return nil, err
	}
	h, err := n.rt.store.NextEdge(root, n.h, cursor, dir)
	if err != nil {
		return nil, err
	}
	return n.rt.edgeProxy(h), nil
}

// NextEdge returns the incident edge following prev: out-edges first, then
// in-edges. A nil prev starts over; nil marks the end.
func (n *Node) NextEdge(prev *Edge) (*Edge, error) {
	return n.next(prev, entity.Both)
}

// NextInput returns the in-edge following prev.
func (n *Node) NextInput(prev *Edge) (*Edge, error) {
	return n.next(prev, entity.In)
}

// NextOutput returns the out-edge following prev.
func (n *Node) NextOutput(prev *Edge) (*Edge, error) {
	return n.next(prev, entity.Out)
}

// WalkEdges iterates over every incident edge, self-loops once.
func (n *Node) WalkEdges() iter.Seq2[*Edge, error] {
	return walk(n.NextEdge)
}

// WalkInputs iterates over the in-edges.
func (n *Node) WalkInputs() iter.Seq2[*Edge, error] {
	return walk(n.NextInput)
}

// WalkOutputs iterates over the out-edges.
func (n *Node) WalkOutputs() iter.Seq2[*Edge, error] {
	return walk(n.NextOutput)
}

// Delete deletes the node and every incident edge. Deleting a dead node is
// a no-op.
func (n *Node) Delete() error {
	n.rt.mu.Lock()
	defer n.rt.mu.Unlock()
	return n.rt.delete(n)
}
