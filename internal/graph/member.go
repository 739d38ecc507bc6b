package graph

import (
	"github.com/specialistvlad/proxygraph/internal/entity"
)

// Member resolves key against the proxy's members first, then its declared
// attributes, then its extended attributes. Graph members are name, id,
// root, parent, isroot, isstrict, isdirected, nnodes, nedges, graph, kind,
// type and status; node members are name, id, graph, type and status; edge
// members are name, id, tail, head, graph, label, type and status. Only
// status and type can be read from a dead proxy.
func (b *base) Member(key string) (any, bool, error) {
	switch key {
	case "status":
		b.rt.mu.Lock()
		defer b.rt.mu.Unlock()
		if b.dead {
			return StatusDead, true, nil
		}
		return StatusAlive, true, nil
	case "type":
		return b.Type(), true, nil
	}

	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return nil, false, err
	}
	if v, ok, err := b.member(key); ok || err != nil {
		return v, ok, err
	}
	v, ok, err := b.attr(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if s, isString, _ := asString(v); isString {
		return s, true, nil
	}
	return v, true, nil
}

// member dispatches on the entity kind. The runtime lock is held.
func (b *base) member(key string) (any, bool, error) {
	rt := b.rt
	switch key {
	case "name":
		return b.name, true, nil
	case "id":
		id, err := rt.store.ID(b.h)
		return id, err == nil, err
	}

	switch b.h.Kind {
	case entity.KindGraph:
		return b.graphMember(key)
	case entity.KindNode:
		if key == "graph" {
			h, err := rt.store.Home(b.h)
			if err != nil {
				return nil, false, err
			}
			return rt.graphProxy(h), true, nil
		}
	case entity.KindEdge:
		switch key {
		case "tail", "head":
			t, h, err := rt.store.Endpoints(b.h)
			if err != nil {
				return nil, false, err
			}
			if key == "tail" {
				return rt.nodeProxy(t), true, nil
			}
			return rt.nodeProxy(h), true, nil
		case "graph":
			h, err := rt.store.Home(b.h)
			if err != nil {
				return nil, false, err
			}
			return rt.graphProxy(h), true, nil
		}
	}
	return nil, false, nil
}

func (b *base) graphMember(key string) (any, bool, error) {
	rt := b.rt
	switch key {
	case "graph":
		return rt.graphProxy(b.h), true, nil
	case "root":
		h, err := rt.store.Root(b.h)
		if err != nil {
			return nil, false, err
		}
		return rt.graphProxy(h), true, nil
	case "parent", "isroot":
		h, err := rt.store.Parent(b.h)
		if err != nil {
			return nil, false, err
		}
		if key == "isroot" {
			return h.IsZero(), true, nil
		}
		if h.IsZero() {
			return nil, true, nil
		}
		return rt.graphProxy(h), true, nil
	case "isstrict", "isdirected", "kind":
		desc, err := rt.store.Desc(b.h)
		if err != nil {
			return nil, false, err
		}
		switch key {
		case "isstrict":
			return desc.Strict, true, nil
		case "isdirected":
			return desc.Directed, true, nil
		}
		return desc.String(), true, nil
	case "nnodes":
		n, err := rt.store.NodeCount(b.h)
		return n, err == nil, err
	case "nedges":
		n, err := rt.store.EdgeCount(b.h)
		return n, err == nil, err
	}
	return nil, false, nil
}
