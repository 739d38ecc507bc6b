package graph

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/proxygraph/internal/attrdict"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/zclconf/go-cty/cty"
)

// overrideChain lists g and its ancestors nearest first. The root is only
// included for the graph class, whose root values live with the root.
func (g *Graph) overrideChain(class entity.Kind) ([]entity.Handle, error) {
	var chain []entity.Handle
	for cur := g.h; !cur.IsZero(); {
		parent, err := g.rt.store.Parent(cur)
		if err != nil {
			return nil, err
		}
		if parent.IsZero() && class != entity.KindGraph {
			break
		}
		chain = append(chain, cur)
		cur = parent
	}
	return chain, nil
}

func checkClass(class entity.Kind) error {
	if !class.Valid() {
		return fmt.Errorf("attribute class %s: %w", class, gerrors.ErrInvalidKind)
	}
	return nil
}

// Declare declares key for class in the universe of g with default def.
func (g *Graph) Declare(class entity.Kind, key, def string) (*attrdict.Symbol, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	dict, err := g.rt.store.Dict(g.h)
	if err != nil {
		return nil, err
	}
	return dict.Declare(class, key, def)
}

// Attrs lists the declared attributes of class in declaration order with
// the values seen from g: subgraph overrides shadow the defaults.
func (g *Graph) Attrs(class entity.Kind) ([]attrdict.Entry, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return g.attrs(class)
}

func (g *Graph) attrs(class entity.Kind) ([]attrdict.Entry, error) {
	if err := checkClass(class); err != nil {
		return nil, err
	}
	dict, err := g.rt.store.Dict(g.h)
	if err != nil {
		return nil, err
	}
	chain, err := g.overrideChain(class)
	if err != nil {
		return nil, err
	}
	return dict.Entries(chain, class), nil
}

// GraphAttrs is Attrs(entity.KindGraph).
func (g *Graph) GraphAttrs() ([]attrdict.Entry, error) { return g.Attrs(entity.KindGraph) }

// NodeAttrs is Attrs(entity.KindNode).
func (g *Graph) NodeAttrs() ([]attrdict.Entry, error) { return g.Attrs(entity.KindNode) }

// EdgeAttrs is Attrs(entity.KindEdge).
func (g *Graph) EdgeAttrs() ([]attrdict.Entry, error) { return g.Attrs(entity.KindEdge) }

// SetAttrs applies values to class in key order and returns how many were
// applied. On a root graph each value becomes the declared default; on a
// subgraph it becomes a local override, declaring the key with the value as
// default first when needed. The batch stops at the first key or value that
// is not a string; entries already applied stay applied.
func (g *Graph) SetAttrs(class entity.Kind, values map[string]cty.Value) (int, error) {
	unlock, err := g.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return g.setAttrs(class, values)
}

func (g *Graph) setAttrs(class entity.Kind, values map[string]cty.Value) (int, error) {
	if err := checkClass(class); err != nil {
		return 0, err
	}
	dict, err := g.rt.store.Dict(g.h)
	if err != nil {
		return 0, err
	}
	parent, err := g.rt.store.Parent(g.h)
	if err != nil {
		return 0, err
	}
	isRoot := parent.IsZero()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	count := 0
	for _, key := range keys {
		if err := attrdict.ValidateKey(key); err != nil {
			return count, err
		}
		s, err := declaredString(values[key])
		if err != nil {
			return count, fmt.Errorf("%s attribute %q: %w", class, key, err)
		}
		if _, declared := dict.Lookup(class, key); isRoot || !declared {
			if _, err := dict.Declare(class, key, s); err != nil {
				return count, err
			}
		}
		if !isRoot || class == entity.KindGraph {
			if err := dict.SetLocal(g.h, class, key, s); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}

// Defaults returns Attrs for the three classes.
func (g *Graph) Defaults() (map[entity.Kind][]attrdict.Entry, error) {
	unlock, err := g.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make(map[entity.Kind][]attrdict.Entry, len(entity.Kinds))
	for _, k := range entity.Kinds {
		entries, err := g.attrs(k)
		if err != nil {
			return nil, err
		}
		out[k] = entries
	}
	return out, nil
}

// SetDefaults applies SetAttrs per class in graph, node, edge order and
// returns the total number of entries applied.
func (g *Graph) SetDefaults(values map[entity.Kind]map[string]cty.Value) (int, error) {
	unlock, err := g.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	for k := range values {
		if err := checkClass(k); err != nil {
			return 0, err
		}
	}
	total := 0
	for _, k := range entity.Kinds {
		n, err := g.setAttrs(k, values[k])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
