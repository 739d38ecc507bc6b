package graph

// Edge is the proxy of an edge.
type Edge struct {
	base
}

func (e *Edge) core() *base {
	if e == nil {
		return nil
	}
	return &e.base
}

func (e *Edge) lock() (func(), error) {
	e.rt.mu.Lock()
	if err := e.live(); err != nil {
		e.rt.mu.Unlock()
		return nil, err
	}
	return e.rt.mu.Unlock, nil
}

// Tail returns the tail node.
func (e *Edge) Tail() (*Node, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	t, _, err := e.rt.store.Endpoints(e.h)
	if err != nil {
		return nil, err
	}
	return e.rt.nodeProxy(t), nil
}

// Head returns the head node.
func (e *Edge) Head() (*Node, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	_, h, err := e.rt.store.Endpoints(e.h)
	if err != nil {
		return nil, err
	}
	return e.rt.nodeProxy(h), nil
}

// Graph returns the graph the edge was created through, or the root once
// that graph is closed.
func (e *Edge) Graph() (*Graph, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	h, err := e.rt.store.Home(e.h)
	if err != nil {
		return nil, err
	}
	return e.rt.graphProxy(h), nil
}

// Label returns the "label" attribute.
func (e *Edge) Label() (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	v, _, err := e.rt.store.Attr(e.h, "label")
	return v, err
}

// Delete deletes the edge. Deleting a dead edge is a no-op.
func (e *Edge) Delete() error {
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	return e.rt.delete(e)
}
