package graph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/proxygraph/internal/attrdict"
	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/specialistvlad/proxygraph/internal/graphfile"
)

// Archive stores documents under generated ids.
type Archive interface {
	Save(ctx context.Context, doc *graphfile.Document) (string, error)
	Load(ctx context.Context, id string) (*graphfile.Document, error)
}

// Document describes g, its members and its subgraphs.
func (g *Graph) Document() (*graphfile.Document, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return g.rt.document(g.h)
}

// explicit returns the declared values of h that differ from the default,
// reserved keys excluded.
func (rt *Runtime) explicit(dict *attrdict.Dictionary, h entity.Handle) (map[string]string, error) {
	var out map[string]string
	for _, sym := range dict.Symbols(h.Kind) {
		if sym.Reserved {
			continue
		}
		v, _, err := rt.store.Attr(h, sym.Key)
		if err != nil {
			return nil, err
		}
		if v == sym.Default {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[sym.Key] = v
	}
	return out, nil
}

func locals(dict *attrdict.Dictionary, g entity.Handle, class entity.Kind) map[string]string {
	m := dict.Locals(g, class)
	delete(m, attrdict.ExtKey)
	if len(m) == 0 {
		return nil
	}
	return m
}

// memberEdges lists the edges of g grouped by tail, in node id order.
func (rt *Runtime) memberEdges(g entity.Handle) ([]entity.Handle, error) {
	var edges []entity.Handle
	for n, err := rt.store.NextNode(g, entity.Handle{}); ; n, err = rt.store.NextNode(g, n) {
		if err != nil {
			return nil, err
		}
		if n.IsZero() {
			break
		}
		for e, err := rt.store.NextEdge(g, n, entity.Handle{}, entity.Out); ; e, err = rt.store.NextEdge(g, n, e, entity.Out) {
			if err != nil {
				return nil, err
			}
			if e.IsZero() {
				break
			}
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func (rt *Runtime) document(top entity.Handle) (*graphfile.Document, error) {
	store := rt.store
	dict, err := store.Dict(top)
	if err != nil {
		return nil, err
	}
	desc, err := store.Desc(top)
	if err != nil {
		return nil, err
	}
	name, err := store.Name(top)
	if err != nil {
		return nil, err
	}
	doc := &graphfile.Document{Name: name, Kind: desc.String(), Attrs: locals(dict, top, entity.KindGraph)}

	for _, k := range entity.Kinds {
		for _, sym := range dict.Symbols(k) {
			if !sym.Reserved {
				doc.Declares = append(doc.Declares, graphfile.Declare{Class: k.String(), Key: sym.Key, Default: sym.Default})
			}
		}
	}

	for n, err := store.NextNode(top, entity.Handle{}); ; n, err = store.NextNode(top, n) {
		if err != nil {
			return nil, err
		}
		if n.IsZero() {
			break
		}
		nodeName, _ := store.Name(n)
		attrs, err := rt.explicit(dict, n)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, graphfile.Node{Name: nodeName, Attrs: attrs})
	}

	edges, err := rt.memberEdges(top)
	if err != nil {
		return nil, err
	}
	index := make(map[entity.Handle]int, len(edges))
	for i, e := range edges {
		index[e] = i
		t, h, err := store.Endpoints(e)
		if err != nil {
			return nil, err
		}
		edgeName, _ := store.Name(e)
		tailName, _ := store.Name(t)
		headName, _ := store.Name(h)
		attrs, err := rt.explicit(dict, e)
		if err != nil {
			return nil, err
		}
		doc.Edges = append(doc.Edges, graphfile.Edge{Name: edgeName, Tail: tailName, Head: headName, Attrs: attrs})
	}

	doc.Subgraphs, err = rt.subgraphs(dict, top, index)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (rt *Runtime) subgraphs(dict *attrdict.Dictionary, g entity.Handle, index map[entity.Handle]int) ([]graphfile.Subgraph, error) {
	var out []graphfile.Subgraph
	for sg, err := rt.store.NextSubgraph(g, entity.Handle{}); ; sg, err = rt.store.NextSubgraph(g, sg) {
		if err != nil {
			return nil, err
		}
		if sg.IsZero() {
			break
		}
		name, _ := rt.store.Name(sg)
		s := graphfile.Subgraph{
			Name:         name,
			Attrs:        locals(dict, sg, entity.KindGraph),
			NodeDefaults: locals(dict, sg, entity.KindNode),
			EdgeDefaults: locals(dict, sg, entity.KindEdge),
		}
		for n, err := rt.store.NextNode(sg, entity.Handle{}); ; n, err = rt.store.NextNode(sg, n) {
			if err != nil {
				return nil, err
			}
			if n.IsZero() {
				break
			}
			nodeName, _ := rt.store.Name(n)
			s.Nodes = append(s.Nodes, nodeName)
		}
		edges, err := rt.memberEdges(sg)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if i, ok := index[e]; ok {
				s.Edges = append(s.Edges, i)
			}
		}
		if s.Subgraphs, err = rt.subgraphs(dict, sg, index); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// FromDocument builds a new root graph from doc. On failure nothing is left
// open.
func (rt *Runtime) FromDocument(doc *graphfile.Document) (*Graph, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	g, err := rt.open(doc.Name, doc.Kind)
	if err != nil {
		return nil, err
	}
	if err := rt.populate(g, doc); err != nil {
		_ = g.close()
		return nil, fmt.Errorf("build graph %q: %w", doc.Name, err)
	}
	return g, nil
}

func (rt *Runtime) populate(g *Graph, doc *graphfile.Document) error {
	dict, err := rt.store.Dict(g.h)
	if err != nil {
		return err
	}
	for _, d := range doc.Declares {
		class, err := entity.ParseKind(d.Class)
		if err != nil {
			return err
		}
		if _, err := dict.Declare(class, d.Key, d.Default); err != nil {
			return err
		}
	}
	if err := rt.apply(dict, g.h, doc.Attrs); err != nil {
		return err
	}

	nodes := make(map[string]entity.Handle, len(doc.Nodes))
	for _, n := range doc.Nodes {
		h, _, err := rt.store.CreateNode(g.h, n.Name)
		if err != nil {
			return err
		}
		nodes[n.Name] = h
		if err := rt.apply(dict, h, n.Attrs); err != nil {
			return err
		}
	}
	endpoint := func(name string) (entity.Handle, error) {
		if h, ok := nodes[name]; ok {
			return h, nil
		}
		h, _, err := rt.store.CreateNode(g.h, name)
		if err != nil {
			return entity.Handle{}, err
		}
		nodes[name] = h
		return h, nil
	}
	edges := make([]entity.Handle, len(doc.Edges))
	for i, e := range doc.Edges {
		t, err := endpoint(e.Tail)
		if err != nil {
			return err
		}
		h, err := endpoint(e.Head)
		if err != nil {
			return err
		}
		eh, _, err := rt.store.CreateEdge(g.h, t, h, e.Name)
		if err != nil {
			return err
		}
		edges[i] = eh
		if err := rt.apply(dict, eh, e.Attrs); err != nil {
			return err
		}
	}
	return rt.populateSubgraphs(dict, g.h, doc.Subgraphs, nodes, edges)
}

func (rt *Runtime) populateSubgraphs(dict *attrdict.Dictionary, parent entity.Handle, subs []graphfile.Subgraph, nodes map[string]entity.Handle, edges []entity.Handle) error {
	for _, s := range subs {
		sg, _, err := rt.store.CreateSubgraph(parent, s.Name)
		if err != nil {
			return err
		}
		for class, values := range map[entity.Kind]map[string]string{
			entity.KindGraph: s.Attrs,
			entity.KindNode:  s.NodeDefaults,
			entity.KindEdge:  s.EdgeDefaults,
		} {
			for k, v := range values {
				if _, declared := dict.Lookup(class, k); !declared {
					if _, err := dict.Declare(class, k, ""); err != nil {
						return err
					}
				}
				if err := dict.SetLocal(sg, class, k, v); err != nil {
					return err
				}
			}
		}
		for _, name := range s.Nodes {
			h, ok := nodes[name]
			if !ok {
				return fmt.Errorf("subgraph %q lists unknown node %q: %w", s.Name, name, gerrors.ErrNotFound)
			}
			if err := rt.store.Insert(sg, h); err != nil {
				return err
			}
		}
		for _, i := range s.Edges {
			if i < 0 || i >= len(edges) {
				return fmt.Errorf("subgraph %q lists unknown edge %d: %w", s.Name, i, gerrors.ErrNotFound)
			}
			if err := rt.store.Insert(sg, edges[i]); err != nil {
				return err
			}
		}
		if err := rt.populateSubgraphs(dict, sg, s.Subgraphs, nodes, edges); err != nil {
			return err
		}
	}
	return nil
}

// apply sets declared attribute values on h, declaring unknown keys with an
// empty default.
func (rt *Runtime) apply(dict *attrdict.Dictionary, h entity.Handle, values map[string]string) error {
	for k, v := range values {
		if err := attrdict.ValidateKey(k); err != nil {
			return err
		}
		if _, declared := dict.Lookup(h.Kind, k); !declared {
			if _, err := dict.Declare(h.Kind, k, ""); err != nil {
				return err
			}
		}
		if err := rt.store.SetAttr(h, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Read loads a graph from name: "stdin" or a file whose extension selects
// the format.
func (rt *Runtime) Read(ctx context.Context, name string) (*Graph, error) {
	doc, err := rt.files.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Graph document read.", "source", name, "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return rt.FromDocument(doc)
}

// Write stores g in name: "stdout" or a file whose extension selects the
// format.
func (g *Graph) Write(ctx context.Context, name string) error {
	doc, err := g.Document()
	if err != nil {
		return err
	}
	return g.rt.files.Write(ctx, name, doc)
}

// Snapshot saves g in archive and returns the snapshot id.
func (g *Graph) Snapshot(ctx context.Context, archive Archive) (string, error) {
	doc, err := g.Document()
	if err != nil {
		return "", err
	}
	id, err := archive.Save(ctx, doc)
	if err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Debug("Graph snapshot saved.", "graph", doc.Name, "id", id)
	return id, nil
}

// Restore builds a new root graph from snapshot id.
func (rt *Runtime) Restore(ctx context.Context, archive Archive, id string) (*Graph, error) {
	doc, err := archive.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return rt.FromDocument(doc)
}

// Layout lays g out with engine, one of dot, neato, nop, nop2, twopi, fdp
// and circo. A graph holds at most one layout until FreeLayout.
func (g *Graph) Layout(ctx context.Context, engine string) error {
	doc, err := g.Document()
	if err != nil {
		return err
	}
	var src bytes.Buffer
	if err := graphfile.Encode(ctx, &src, doc, graphfile.FormatDOT); err != nil {
		return err
	}
	return g.rt.layouts.Layout(ctx, g.h, engine, src.Bytes())
}

// FreeLayout releases the layout of g and reports whether one was active.
func (g *Graph) FreeLayout() (bool, error) {
	unlock, err := g.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return g.rt.layouts.Free(g.h), nil
}

// Render writes the laid out graph in format to dest: a file name, "stdout",
// or the runtime output when dest is empty. A failed render releases the
// layout. dest is not touched when g has no layout.
func (g *Graph) Render(ctx context.Context, format, dest string) (err error) {
	unlock, err := g.lock()
	if err != nil {
		return err
	}
	unlock()

	if _, active := g.rt.layouts.Active(g.h); !active {
		return fmt.Errorf("render %s: %w", g.h, gerrors.ErrLayoutMissing)
	}

	var w io.Writer
	switch dest {
	case "":
		w = g.rt.out
	case graphfile.StdoutName:
		w = g.rt.files.Stdout
	default:
		f, ferr := os.Create(dest)
		if ferr != nil {
			return fmt.Errorf("render to %s: %w: %w", dest, gerrors.ErrIO, ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("render to %s: %w: %w", dest, gerrors.ErrIO, cerr)
			}
		}()
		w = f
	}
	if w == nil {
		return fmt.Errorf("render to %q: no output: %w", dest, gerrors.ErrIO)
	}
	return g.rt.layouts.Render(ctx, g.h, format, w)
}
