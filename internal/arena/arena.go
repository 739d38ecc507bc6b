package arena

import (
	"fmt"
	"strconv"

	"github.com/specialistvlad/proxygraph/internal/attrdict"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/entitystore"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

type graphRec struct {
	h        entity.Handle
	id       uint64
	name     string
	parent   entity.Handle
	children []entity.Handle
	nodes    memberSet
	edges    memberSet
}

type nodeRec struct {
	h      entity.Handle
	id     uint64
	name   string
	home   entity.Handle
	out    memberSet
	in     memberSet
	values map[string]string
}

type edgeRec struct {
	h      entity.Handle
	id     uint64
	name   string
	home   entity.Handle
	tail   entity.Handle
	head   entity.Handle
	values map[string]string
}

type universe struct {
	id      uint32
	desc    entity.Desc
	root    entity.Handle
	obs     entitystore.Observer
	dict    *attrdict.Dictionary
	graphs  table[graphRec]
	nodes   table[nodeRec]
	edges   table[edgeRec]
	nextID  [3]uint64
	byName  map[string]entity.Handle
	byID    map[uint64]entity.Handle
	closing bool
}

// Arena implements entitystore.Store.
type Arena struct {
	universes    map[uint32]*universe
	nextUniverse uint32
}

var _ entitystore.Store = (*Arena)(nil)

// New creates an empty arena.
func New() *Arena {
	return &Arena{universes: make(map[uint32]*universe)}
}

// Universes returns the number of open root graphs.
func (a *Arena) Universes() int {
	return len(a.universes)
}

func stale(h entity.Handle) error {
	return fmt.Errorf("%s: %w", h, gerrors.ErrStaleReference)
}

func (a *Arena) universe(h entity.Handle) (*universe, error) {
	u, ok := a.universes[h.Universe]
	if !ok || h.IsZero() {
		return nil, stale(h)
	}
	return u, nil
}

func (a *Arena) graph(h entity.Handle) (*universe, *graphRec, error) {
	if h.Kind != entity.KindGraph {
		return nil, nil, fmt.Errorf("%s is not a graph: %w", h, gerrors.ErrInvalidKind)
	}
	u, err := a.universe(h)
	if err != nil {
		return nil, nil, err
	}
	g, ok := u.graphs.get(h.Index, h.Gen)
	if !ok {
		return nil, nil, stale(h)
	}
	return u, g, nil
}

func (a *Arena) node(h entity.Handle) (*universe, *nodeRec, error) {
	if h.Kind != entity.KindNode {
		return nil, nil, fmt.Errorf("%s is not a node: %w", h, gerrors.ErrInvalidKind)
	}
	u, err := a.universe(h)
	if err != nil {
		return nil, nil, err
	}
	n, ok := u.nodes.get(h.Index, h.Gen)
	if !ok {
		return nil, nil, stale(h)
	}
	return u, n, nil
}

func (a *Arena) edge(h entity.Handle) (*universe, *edgeRec, error) {
	if h.Kind != entity.KindEdge {
		return nil, nil, fmt.Errorf("%s is not an edge: %w", h, gerrors.ErrInvalidKind)
	}
	u, err := a.universe(h)
	if err != nil {
		return nil, nil, err
	}
	e, ok := u.edges.get(h.Index, h.Gen)
	if !ok {
		return nil, nil, stale(h)
	}
	return u, e, nil
}

func (u *universe) graphRec(h entity.Handle) *graphRec {
	g, _ := u.graphs.get(h.Index, h.Gen)
	return g
}

func (u *universe) nodeRec(h entity.Handle) *nodeRec {
	n, _ := u.nodes.get(h.Index, h.Gen)
	return n
}

func (u *universe) edgeRec(h entity.Handle) *edgeRec {
	e, _ := u.edges.get(h.Index, h.Gen)
	return e
}

func (u *universe) newID(k entity.Kind) uint64 {
	u.nextID[k]++
	return u.nextID[k]
}

// ancestry returns g and its ancestors, nearest first, root last.
func (u *universe) ancestry(g *graphRec) []*graphRec {
	var out []*graphRec
	for cur := g; cur != nil; {
		out = append(out, cur)
		if cur.parent.IsZero() {
			break
		}
		cur = u.graphRec(cur.parent)
	}
	return out
}

// overrideChain returns the handles of g and its ancestors, root excluded.
func (u *universe) overrideChain(g *graphRec) []entity.Handle {
	var out []entity.Handle
	for _, r := range u.ancestry(g) {
		if r.parent.IsZero() {
			break
		}
		out = append(out, r.h)
	}
	return out
}

// inherited copies the overrides visible from g into a fresh value map.
func (u *universe) inherited(g *graphRec, class entity.Kind) map[string]string {
	values := make(map[string]string)
	chain := u.overrideChain(g)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range u.dict.Locals(chain[i], class) {
			values[k] = v
		}
	}
	return values
}

func (u *universe) inserted(g, h entity.Handle) {
	if u.obs != nil {
		u.obs.Inserted(g, h)
	}
}

func (u *universe) deleted(h entity.Handle) {
	if u.obs != nil {
		u.obs.Deleted(u.root, h)
	}
}

func (u *universe) modified(h entity.Handle, key string) {
	if u.obs != nil {
		u.obs.Modified(h, key)
	}
}

// Open implements entitystore.Store.
func (a *Arena) Open(name string, desc entity.Desc, obs entitystore.Observer) (entity.Handle, error) {
	if name == "" {
		return entity.Handle{}, fmt.Errorf("root graph name is empty: %w", gerrors.ErrInvalidValue)
	}
	a.nextUniverse++
	u := &universe{
		id:     a.nextUniverse,
		desc:   desc,
		obs:    obs,
		dict:   attrdict.New(),
		byName: make(map[string]entity.Handle),
		byID:   make(map[uint64]entity.Handle),
	}
	for _, k := range entity.Kinds {
		if _, err := u.dict.DeclareReserved(k, attrdict.ExtKey, ""); err != nil {
			return entity.Handle{}, err
		}
	}
	if _, err := u.dict.Declare(entity.KindEdge, attrdict.LabelKey, ""); err != nil {
		return entity.Handle{}, err
	}

	rec := &graphRec{id: u.newID(entity.KindGraph), name: name}
	idx, gen := u.graphs.alloc(rec)
	rec.h = entity.Handle{Universe: u.id, Kind: entity.KindGraph, Index: idx, Gen: gen}
	u.root = rec.h
	a.universes[u.id] = u
	u.inserted(rec.h, rec.h)
	return rec.h, nil
}

// Alive implements entitystore.Store.
func (a *Arena) Alive(h entity.Handle) bool {
	u, ok := a.universes[h.Universe]
	if !ok || h.IsZero() {
		return false
	}
	switch h.Kind {
	case entity.KindGraph:
		_, ok = u.graphs.get(h.Index, h.Gen)
	case entity.KindNode:
		_, ok = u.nodes.get(h.Index, h.Gen)
	case entity.KindEdge:
		_, ok = u.edges.get(h.Index, h.Gen)
	default:
		ok = false
	}
	return ok
}

func (a *Arena) check(h entity.Handle) (*universe, error) {
	if !a.Alive(h) {
		return nil, stale(h)
	}
	return a.universes[h.Universe], nil
}

// Desc implements entitystore.Store.
func (a *Arena) Desc(h entity.Handle) (entity.Desc, error) {
	u, err := a.check(h)
	if err != nil {
		return entity.Desc{}, err
	}
	return u.desc, nil
}

// Name implements entitystore.Store.
func (a *Arena) Name(h entity.Handle) (string, error) {
	u, err := a.check(h)
	if err != nil {
		return "", err
	}
	switch h.Kind {
	case entity.KindGraph:
		return u.graphRec(h).name, nil
	case entity.KindNode:
		return u.nodeRec(h).name, nil
	default:
		return u.edgeRec(h).name, nil
	}
}

// ID implements entitystore.Store.
func (a *Arena) ID(h entity.Handle) (uint64, error) {
	u, err := a.check(h)
	if err != nil {
		return 0, err
	}
	switch h.Kind {
	case entity.KindGraph:
		return u.graphRec(h).id, nil
	case entity.KindNode:
		return u.nodeRec(h).id, nil
	default:
		return u.edgeRec(h).id, nil
	}
}

func autoName(k entity.Kind, id uint64) string {
	return k.String() + "@" + strconv.FormatUint(id, 10)
}

// freeNodeName returns the generated name for node id, suffixed with _<n>
// while another node holds it.
func (u *universe) freeNodeName(id uint64, self entity.Handle) string {
	base := autoName(entity.KindNode, id)
	name := base
	for i := 1; ; i++ {
		if h, taken := u.byName[name]; !taken || h == self {
			return name
		}
		name = base + "_" + strconv.Itoa(i)
	}
}

// Rename implements entitystore.Store.
func (a *Arena) Rename(h entity.Handle, name string) error {
	u, err := a.check(h)
	if err != nil {
		return err
	}
	switch h.Kind {
	case entity.KindGraph:
		g := u.graphRec(h)
		if name == "" {
			return fmt.Errorf("rename graph %q to empty name: %w", g.name, gerrors.ErrInvalidValue)
		}
		if name == g.name {
			return nil
		}
		if !g.parent.IsZero() {
			if _, found := u.child(u.graphRec(g.parent), name); found {
				return fmt.Errorf("rename graph %q to %q: %w", g.name, name, gerrors.ErrNameInUse)
			}
		}
		g.name = name
	case entity.KindNode:
		n := u.nodeRec(h)
		if name == "" {
			name = u.freeNodeName(n.id, h)
		}
		if name == n.name {
			return nil
		}
		if other, taken := u.byName[name]; taken && other != h {
			return fmt.Errorf("rename node %q to %q: %w", n.name, name, gerrors.ErrNameInUse)
		}
		delete(u.byName, n.name)
		n.name = name
		u.byName[name] = h
	default:
		e := u.edgeRec(h)
		if name == "" {
			name = autoName(entity.KindEdge, e.id)
		}
		e.name = name
	}
	return nil
}

// Root implements entitystore.Store.
func (a *Arena) Root(h entity.Handle) (entity.Handle, error) {
	u, err := a.check(h)
	if err != nil {
		return entity.Handle{}, err
	}
	return u.root, nil
}

// Parent implements entitystore.Store.
func (a *Arena) Parent(g entity.Handle) (entity.Handle, error) {
	_, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, err
	}
	return rec.parent, nil
}

// Home implements entitystore.Store.
func (a *Arena) Home(h entity.Handle) (entity.Handle, error) {
	u, err := a.check(h)
	if err != nil {
		return entity.Handle{}, err
	}
	var home entity.Handle
	switch h.Kind {
	case entity.KindGraph:
		return h, nil
	case entity.KindNode:
		home = u.nodeRec(h).home
	default:
		home = u.edgeRec(h).home
	}
	if u.graphRec(home) == nil {
		return u.root, nil
	}
	return home, nil
}

func (u *universe) child(g *graphRec, name string) (entity.Handle, bool) {
	for _, c := range g.children {
		if rec := u.graphRec(c); rec != nil && rec.name == name {
			return c, true
		}
	}
	return entity.Handle{}, false
}

// FindSubgraph implements entitystore.Store.
func (a *Arena) FindSubgraph(g entity.Handle, name string) (entity.Handle, bool, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, false, err
	}
	h, found := u.child(rec, name)
	return h, found, nil
}

// CreateSubgraph implements entitystore.Store.
func (a *Arena) CreateSubgraph(g entity.Handle, name string) (entity.Handle, bool, error) {
	u, parent, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, false, err
	}
	if name == "" {
		return entity.Handle{}, false, fmt.Errorf("subgraph of %q needs a name: %w", parent.name, gerrors.ErrInvalidValue)
	}
	if h, found := u.child(parent, name); found {
		return h, false, nil
	}
	rec := &graphRec{id: u.newID(entity.KindGraph), name: name, parent: g}
	idx, gen := u.graphs.alloc(rec)
	rec.h = entity.Handle{Universe: u.id, Kind: entity.KindGraph, Index: idx, Gen: gen}
	parent.children = append(parent.children, rec.h)
	u.inserted(g, rec.h)
	return rec.h, true, nil
}

// NextSubgraph implements entitystore.Store.
func (a *Arena) NextSubgraph(g, prev entity.Handle) (entity.Handle, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, err
	}
	if prev.IsZero() {
		if len(rec.children) == 0 {
			return entity.Handle{}, nil
		}
		return rec.children[0], nil
	}
	if u.graphRec(prev) == nil {
		return entity.Handle{}, stale(prev)
	}
	for i, c := range rec.children {
		if c == prev {
			if i+1 < len(rec.children) {
				return rec.children[i+1], nil
			}
			return entity.Handle{}, nil
		}
	}
	return entity.Handle{}, fmt.Errorf("%s is not a subgraph of %q: %w", prev, rec.name, gerrors.ErrNotFound)
}

// FindNode implements entitystore.Store.
func (a *Arena) FindNode(g entity.Handle, name string) (entity.Handle, bool, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, false, err
	}
	h, ok := u.byName[name]
	if !ok || !rec.nodes.has(u.nodeRec(h).id) {
		return entity.Handle{}, false, nil
	}
	return h, true, nil
}

// joinNode makes n a member of g and its ancestors. It reports whether n was
// missing from g itself.
func (u *universe) joinNode(g *graphRec, n *nodeRec) bool {
	joined := false
	for i, r := range u.ancestry(g) {
		added := r.nodes.add(n.id, n.h)
		if i == 0 {
			joined = added
		}
	}
	return joined
}

func (u *universe) joinEdge(g *graphRec, e *edgeRec) bool {
	joined := false
	for i, r := range u.ancestry(g) {
		added := r.edges.add(e.id, e.h)
		if i == 0 {
			joined = added
		}
	}
	return joined
}

// CreateNode implements entitystore.Store.
func (a *Arena) CreateNode(g entity.Handle, name string) (entity.Handle, bool, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, false, err
	}
	if name != "" {
		if h, ok := u.byName[name]; ok {
			if u.joinNode(rec, u.nodeRec(h)) {
				u.inserted(g, h)
			}
			return h, false, nil
		}
	}
	n := &nodeRec{id: u.newID(entity.KindNode), name: name, home: g, values: u.inherited(rec, entity.KindNode)}
	idx, gen := u.nodes.alloc(n)
	n.h = entity.Handle{Universe: u.id, Kind: entity.KindNode, Index: idx, Gen: gen}
	if n.name == "" {
		n.name = u.freeNodeName(n.id, n.h)
	}
	u.byName[n.name] = n.h
	u.byID[n.id] = n.h
	u.joinNode(rec, n)
	u.inserted(g, n.h)
	return n.h, true, nil
}

// NodeByID implements entitystore.Store.
func (a *Arena) NodeByID(g entity.Handle, id uint64) (entity.Handle, bool, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, false, err
	}
	h, ok := u.byID[id]
	if !ok || !rec.nodes.has(id) {
		return entity.Handle{}, false, nil
	}
	return h, true, nil
}

// NextNode implements entitystore.Store.
func (a *Arena) NextNode(g, prev entity.Handle) (entity.Handle, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, err
	}
	var m member
	var ok bool
	if prev.IsZero() {
		m, ok = rec.nodes.first()
	} else {
		p := u.nodeRec(prev)
		if p == nil || prev.Universe != u.id {
			return entity.Handle{}, stale(prev)
		}
		m, ok = rec.nodes.after(p.id)
	}
	if !ok {
		return entity.Handle{}, nil
	}
	return m.h, nil
}

func (a *Arena) endpoints(g, tail, head entity.Handle) (*universe, *graphRec, *nodeRec, *nodeRec, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if tail.Universe != u.id || head.Universe != u.id {
		return nil, nil, nil, nil, fmt.Errorf("edge endpoints outside graph %q: %w", rec.name, gerrors.ErrCrossGraph)
	}
	_, t, err := a.node(tail)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	_, h, err := a.node(head)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return u, rec, t, h, nil
}

// between returns the first edge from t to h in id order, also matching h to
// t when the universe is undirected.
func (u *universe) between(scope *graphRec, t, h *nodeRec, name string) (*edgeRec, bool) {
	match := func(e *edgeRec) bool {
		if scope != nil && !scope.edges.has(e.id) {
			return false
		}
		return name == "" || e.name == name || e.values[attrdict.LabelKey] == name
	}
	for _, m := range t.out.items {
		if e := u.edgeRec(m.h); e != nil && e.head == h.h && match(e) {
			return e, true
		}
	}
	if !u.desc.Directed {
		for _, m := range t.in.items {
			if e := u.edgeRec(m.h); e != nil && e.tail == h.h && match(e) {
				return e, true
			}
		}
	}
	return nil, false
}

// FindEdge implements entitystore.Store.
func (a *Arena) FindEdge(g, tail, head entity.Handle, name string) (entity.Handle, bool, error) {
	u, rec, t, h, err := a.endpoints(g, tail, head)
	if err != nil {
		return entity.Handle{}, false, err
	}
	e, ok := u.between(rec, t, h, name)
	if !ok {
		return entity.Handle{}, false, nil
	}
	return e.h, true, nil
}

// CreateEdge implements entitystore.Store.
func (a *Arena) CreateEdge(g, tail, head entity.Handle, name string) (entity.Handle, bool, error) {
	u, rec, t, h, err := a.endpoints(g, tail, head)
	if err != nil {
		return entity.Handle{}, false, err
	}
	for _, n := range []*nodeRec{t, h} {
		if u.joinNode(rec, n) {
			u.inserted(g, n.h)
		}
	}
	if u.desc.Strict {
		if e, ok := u.between(nil, t, h, ""); ok {
			if u.joinEdge(rec, e) {
				u.inserted(g, e.h)
			}
			return e.h, false, nil
		}
	}
	e := &edgeRec{
		id:     u.newID(entity.KindEdge),
		name:   name,
		home:   g,
		tail:   t.h,
		head:   h.h,
		values: u.inherited(rec, entity.KindEdge),
	}
	idx, gen := u.edges.alloc(e)
	e.h = entity.Handle{Universe: u.id, Kind: entity.KindEdge, Index: idx, Gen: gen}
	if e.name == "" {
		e.name = autoName(entity.KindEdge, e.id)
	}
	t.out.add(e.id, e.h)
	h.in.add(e.id, e.h)
	u.joinEdge(rec, e)
	u.inserted(g, e.h)
	return e.h, true, nil
}

// Endpoints implements entitystore.Store.
func (a *Arena) Endpoints(h entity.Handle) (entity.Handle, entity.Handle, error) {
	_, e, err := a.edge(h)
	if err != nil {
		return entity.Handle{}, entity.Handle{}, err
	}
	return e.tail, e.head, nil
}

// NextEdge implements entitystore.Store.
func (a *Arena) NextEdge(g, n, prev entity.Handle, dir entity.Direction) (entity.Handle, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return entity.Handle{}, err
	}
	_, nr, err := a.node(n)
	if err != nil {
		return entity.Handle{}, err
	}
	if n.Universe != u.id {
		return entity.Handle{}, fmt.Errorf("node %q outside graph %q: %w", nr.name, rec.name, gerrors.ErrCrossGraph)
	}

	// scan returns the first member of set after cursor that g contains.
	scan := func(set *memberSet, cursor uint64, skipLoops bool) (entity.Handle, bool) {
		var m member
		var ok bool
		if cursor == 0 {
			m, ok = set.first()
		} else {
			m, ok = set.after(cursor)
		}
		for ; ok; m, ok = set.after(m.id) {
			if !rec.edges.has(m.id) {
				continue
			}
			if skipLoops {
				if e := u.edgeRec(m.h); e != nil && e.tail == e.head {
					continue
				}
			}
			return m.h, true
		}
		return entity.Handle{}, false
	}

	inPhase := dir == entity.In
	var cursor uint64
	if !prev.IsZero() {
		pe := u.edgeRec(prev)
		if pe == nil || prev.Universe != u.id {
			return entity.Handle{}, stale(prev)
		}
		cursor = pe.id
		if dir == entity.Both && pe.tail != n {
			inPhase = true
		}
	}
	if !inPhase {
		if h, ok := scan(&nr.out, cursor, false); ok {
			return h, nil
		}
		if dir == entity.Out {
			return entity.Handle{}, nil
		}
		cursor = 0
	}
	h, _ := scan(&nr.in, cursor, dir == entity.Both)
	return h, nil
}

// Degree implements entitystore.Store.
func (a *Arena) Degree(g, n entity.Handle, dir entity.Direction) (int, error) {
	count := 0
	var prev entity.Handle
	for {
		next, err := a.NextEdge(g, n, prev, dir)
		if err != nil {
			return 0, err
		}
		if next.IsZero() {
			return count, nil
		}
		count++
		prev = next
	}
}

// Insert implements entitystore.Store.
func (a *Arena) Insert(g, h entity.Handle) error {
	u, rec, err := a.graph(g)
	if err != nil {
		return err
	}
	if h.Universe != u.id {
		return fmt.Errorf("insert %s into %q: %w", h, rec.name, gerrors.ErrCrossGraph)
	}
	switch h.Kind {
	case entity.KindNode:
		_, n, err := a.node(h)
		if err != nil {
			return err
		}
		if u.joinNode(rec, n) {
			u.inserted(g, h)
		}
	case entity.KindEdge:
		_, e, err := a.edge(h)
		if err != nil {
			return err
		}
		for _, nh := range []entity.Handle{e.tail, e.head} {
			if n := u.nodeRec(nh); u.joinNode(rec, n) {
				u.inserted(g, nh)
			}
		}
		if u.joinEdge(rec, e) {
			u.inserted(g, h)
		}
	default:
		return fmt.Errorf("insert %s: only nodes and edges can be inserted: %w", h, gerrors.ErrInvalidKind)
	}
	return nil
}

// Delete implements entitystore.Store.
func (a *Arena) Delete(h entity.Handle) error {
	u, err := a.check(h)
	if err != nil {
		return err
	}
	switch h.Kind {
	case entity.KindGraph:
		isRoot := h == u.root
		u.closeGraph(u.graphRec(h), isRoot)
		if isRoot {
			delete(a.universes, u.id)
		}
	case entity.KindNode:
		u.deleteNode(u.nodeRec(h))
	default:
		u.deleteEdge(u.edgeRec(h))
	}
	return nil
}

func (u *universe) closeGraph(g *graphRec, isRoot bool) {
	for _, c := range append([]entity.Handle(nil), g.children...) {
		if rec := u.graphRec(c); rec != nil {
			u.closeGraph(rec, false)
		}
	}
	if isRoot {
		u.closing = true
		for _, nh := range g.nodes.handles() {
			if n := u.nodeRec(nh); n != nil {
				u.deleteNode(n)
			}
		}
	}
	u.deleted(g.h)
	if !g.parent.IsZero() {
		if p := u.graphRec(g.parent); p != nil {
			for i, c := range p.children {
				if c == g.h {
					p.children = append(p.children[:i:i], p.children[i+1:]...)
					break
				}
			}
		}
	}
	u.dict.DropLocal(g.h)
	u.graphs.release(g.h.Index)
}

func (u *universe) deleteNode(n *nodeRec) {
	for _, eh := range append(n.out.handles(), n.in.handles()...) {
		if e := u.edgeRec(eh); e != nil {
			u.deleteEdge(e)
		}
	}
	u.deleted(n.h)
	u.forEachGraph(func(g *graphRec) { g.nodes.remove(n.id) })
	delete(u.byName, n.name)
	delete(u.byID, n.id)
	u.nodes.release(n.h.Index)
}

func (u *universe) deleteEdge(e *edgeRec) {
	u.deleted(e.h)
	u.forEachGraph(func(g *graphRec) { g.edges.remove(e.id) })
	if t := u.nodeRec(e.tail); t != nil {
		t.out.remove(e.id)
	}
	if h := u.nodeRec(e.head); h != nil {
		h.in.remove(e.id)
	}
	u.edges.release(e.h.Index)
}

func (u *universe) forEachGraph(fn func(*graphRec)) {
	if u.closing {
		// Only the root is left once a closing universe reaches its nodes.
		if r := u.graphRec(u.root); r != nil {
			fn(r)
		}
		return
	}
	for i := range u.graphs.slots {
		if g := u.graphs.slots[i].val; g != nil {
			fn(g)
		}
	}
}

// Contains implements entitystore.Store.
func (a *Arena) Contains(g, h entity.Handle) (bool, error) {
	u, rec, err := a.graph(g)
	if err != nil {
		return false, err
	}
	if !a.Alive(h) {
		return false, stale(h)
	}
	if h.Universe != u.id {
		return false, nil
	}
	switch h.Kind {
	case entity.KindGraph:
		for cur := u.graphRec(h); cur != nil; cur = u.graphRec(cur.parent) {
			if cur.h == g {
				return true, nil
			}
		}
		return false, nil
	case entity.KindNode:
		return rec.nodes.has(u.nodeRec(h).id), nil
	default:
		return rec.edges.has(u.edgeRec(h).id), nil
	}
}

// NodeCount implements entitystore.Store.
func (a *Arena) NodeCount(g entity.Handle) (int, error) {
	_, rec, err := a.graph(g)
	if err != nil {
		return 0, err
	}
	return rec.nodes.len(), nil
}

// EdgeCount implements entitystore.Store.
func (a *Arena) EdgeCount(g entity.Handle) (int, error) {
	_, rec, err := a.graph(g)
	if err != nil {
		return 0, err
	}
	return rec.edges.len(), nil
}

// Dict implements entitystore.Store.
func (a *Arena) Dict(h entity.Handle) (*attrdict.Dictionary, error) {
	u, err := a.check(h)
	if err != nil {
		return nil, err
	}
	return u.dict, nil
}

// Attr implements entitystore.Store.
func (a *Arena) Attr(h entity.Handle, key string) (string, bool, error) {
	u, err := a.check(h)
	if err != nil {
		return "", false, err
	}
	sym, ok := u.dict.Lookup(h.Kind, key)
	if !ok {
		return "", false, nil
	}
	var values map[string]string
	switch h.Kind {
	case entity.KindGraph:
		chain := []entity.Handle{h}
		for _, r := range u.ancestry(u.graphRec(h))[1:] {
			chain = append(chain, r.h)
		}
		v, _ := u.dict.Resolve(chain, entity.KindGraph, key)
		return v, true, nil
	case entity.KindNode:
		values = u.nodeRec(h).values
	default:
		values = u.edgeRec(h).values
	}
	if v, set := values[key]; set {
		return v, true, nil
	}
	return sym.Default, true, nil
}

// SetAttr implements entitystore.Store.
func (a *Arena) SetAttr(h entity.Handle, key, value string) error {
	u, err := a.check(h)
	if err != nil {
		return err
	}
	if _, ok := u.dict.Lookup(h.Kind, key); !ok {
		return fmt.Errorf("%s attribute %q is not declared: %w", h.Kind, key, gerrors.ErrNotFound)
	}
	switch h.Kind {
	case entity.KindGraph:
		if err := u.dict.SetLocal(h, entity.KindGraph, key, value); err != nil {
			return err
		}
	case entity.KindNode:
		u.nodeRec(h).values[key] = value
	default:
		u.edgeRec(h).values[key] = value
	}
	u.modified(h, key)
	return nil
}
