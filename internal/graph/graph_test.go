package graph

import (
	"testing"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openGraph(t *testing.T, rt *Runtime, kind string) *Graph {
	t.Helper()
	g, err := rt.Open("G", kind)
	require.NoError(t, err)
	return g
}

func mustNode(t *testing.T, g *Graph, name string) *Node {
	t.Helper()
	n, err := g.Node(name, false)
	require.NoError(t, err)
	return n
}

func mustEdge(t *testing.T, g *Graph, tail, head NodeRef, label string) *Edge {
	t.Helper()
	e, _, _, err := g.Edge(tail, head, label, false)
	require.NoError(t, err)
	return e
}

func nameOf(t *testing.T, obj interface{ Name() (string, error) }) string {
	t.Helper()
	name, err := obj.Name()
	require.NoError(t, err)
	return name
}

func TestOpen(t *testing.T) {
	rt := New()

	t.Run("default kind", func(t *testing.T) {
		g := openGraph(t, rt, "")
		kind, err := g.Kind()
		require.NoError(t, err)
		assert.Equal(t, entity.Directed, kind)
		isRoot, err := g.IsRoot()
		require.NoError(t, err)
		assert.True(t, isRoot)
		parent, err := g.Parent()
		require.NoError(t, err)
		assert.Nil(t, parent)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := rt.Open("G", "hypergraph")
		assert.ErrorIs(t, err, gerrors.ErrInvalidKind)
	})

	t.Run("runtime default kind", func(t *testing.T) {
		g := openGraph(t, New(WithDefaultKind(entity.StrictUndirected)), "")
		strict, err := g.IsStrict()
		require.NoError(t, err)
		directed, err := g.IsDirected()
		require.NoError(t, err)
		assert.True(t, strict)
		assert.False(t, directed)
	})
}

func TestNode_IdentityIsStable(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)

	a1 := mustNode(t, g, "a")
	a2 := mustNode(t, g, "a")
	assert.Same(t, a1, a2)

	found, err := g.Node("a", true)
	require.NoError(t, err)
	assert.Same(t, a1, found)

	id, err := a1.ID()
	require.NoError(t, err)
	byID, err := g.IDNode(id)
	require.NoError(t, err)
	assert.Same(t, a1, byID)

	e := mustEdge(t, g, a1, NodeName("b"), "")
	tail, err := e.Tail()
	require.NoError(t, err)
	assert.Same(t, a1, tail)

	assert.True(t, Equal(a1, tail))
	assert.False(t, Equal(a1, e))
	assert.Equal(t, 4, rt.Proxies(), "graph, a, b and the edge")
}

func TestNode_AutoNameAndMissing(t *testing.T) {
	g := openGraph(t, New(), entity.Directed)

	n := mustNode(t, g, "")
	assert.Equal(t, "node@1", nameOf(t, n))

	_, err := g.Node("ghost", true)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
	_, err = g.IDNode(99)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
}

func TestDelete_ProxyGoesDead(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)
	n := mustNode(t, g, "a")

	require.NoError(t, g.Delete(n))
	assert.Equal(t, StatusDead, n.Status())
	assert.Equal(t, "node", n.Type())

	_, err := n.Name()
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)
	_, err = n.Degree(entity.Both)
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)

	assert.NoError(t, n.Delete(), "second delete is a no-op")
	assert.NoError(t, g.Delete(n))

	again := mustNode(t, g, "a")
	assert.NotSame(t, n, again)
	assert.Equal(t, StatusAlive, again.Status())
}

func TestDelete_NodeCascadesToEdges(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)
	hub := mustNode(t, g, "hub")
	out := mustEdge(t, g, hub, NodeName("x"), "")
	in := mustEdge(t, g, NodeName("y"), hub, "")
	loop := mustEdge(t, g, hub, hub, "")
	keep := mustEdge(t, g, NodeName("x"), NodeName("y"), "")

	require.NoError(t, hub.Delete())
	for _, e := range []*Edge{out, in, loop} {
		assert.Equal(t, StatusDead, e.Status())
	}
	assert.Equal(t, StatusAlive, keep.Status())

	n, err := g.NEdges()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = g.NNodes()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEdge_StrictReturnsExistingAndUpdatesLabel(t *testing.T) {
	g := openGraph(t, New(), entity.StrictDirected)

	e1 := mustEdge(t, g, NodeName("a"), NodeName("b"), "e1")
	e2 := mustEdge(t, g, NodeName("a"), NodeName("b"), "e2")
	assert.Same(t, e1, e2)

	label, err := e1.Label()
	require.NoError(t, err)
	assert.Equal(t, "e2", label)
	assert.Equal(t, "edge@1", nameOf(t, e1), "the label never names the edge")

	n, err := g.NEdges()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEdge_ParallelEdgesInNonStrictGraph(t *testing.T) {
	g := openGraph(t, New(), entity.Directed)

	e1 := mustEdge(t, g, NodeName("a"), NodeName("b"), "")
	e2 := mustEdge(t, g, NodeName("a"), NodeName("b"), "")
	assert.NotSame(t, e1, e2)
	assert.Equal(t, "edge@1", nameOf(t, e1))
	assert.Equal(t, "edge@2", nameOf(t, e2))

	found, _, _, err := g.Edge(NodeName("a"), NodeName("b"), "edge@2", true)
	require.NoError(t, err)
	assert.Same(t, e2, found)
}

func TestEdge_UndirectedDelete(t *testing.T) {
	g := openGraph(t, New(), entity.Undirected)
	a := mustNode(t, g, "a")
	b := mustNode(t, g, "b")
	e := mustEdge(t, g, a, b, "")

	found, err := g.FindEdge(b, a, "")
	require.NoError(t, err)
	assert.Same(t, e, found)

	require.NoError(t, g.Delete(b))
	assert.Equal(t, StatusDead, e.Status())
	degree, err := a.Degree(entity.Both)
	require.NoError(t, err)
	assert.Equal(t, 0, degree)

	_, err = g.FindEdge(a, NodeName("b"), "")
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
}

func TestEdge_FailureRemovesCreatedEndpoints(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)
	other := openGraph(t, rt, entity.Directed)
	foreign := mustNode(t, other, "f")
	before := rt.Proxies()

	t.Run("cross graph endpoint", func(t *testing.T) {
		_, _, _, err := g.Edge(NodeName("x"), foreign, "", false)
		assert.ErrorIs(t, err, gerrors.ErrCrossGraph)
		_, err = g.Node("x", true)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
	})

	t.Run("lookup only", func(t *testing.T) {
		_, _, _, err := g.Edge(NodeName("p"), NodeName("q"), "", true)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
		_, err = g.Node("p", true)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
		_, err = g.Node("q", true)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
	})

	t.Run("lookup only in a subgraph", func(t *testing.T) {
		mustNode(t, g, "r1")
		mustNode(t, g, "r2")
		sg, err := g.Subgraph("s", false)
		require.NoError(t, err)

		_, _, _, err = sg.Edge(NodeName("r1"), NodeName("r2"), "", true)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
		n, err := sg.NNodes()
		require.NoError(t, err)
		assert.Zero(t, n, "a refused lookup inserts nothing")
		require.NoError(t, sg.Close())
		for _, name := range []string{"r1", "r2"} {
			require.NoError(t, g.Delete(mustNode(t, g, name)))
		}
	})

	assert.Equal(t, before, rt.Proxies())
}

func TestCrossRuntime(t *testing.T) {
	g1 := openGraph(t, New(), entity.Directed)
	g2 := openGraph(t, New(), entity.Directed)
	n := mustNode(t, g2, "n")

	assert.ErrorIs(t, g1.Delete(n), gerrors.ErrCrossGraph)
	assert.ErrorIs(t, g1.Insert(n), gerrors.ErrCrossGraph)
	_, err := g1.Contains(n)
	assert.ErrorIs(t, err, gerrors.ErrCrossGraph)
	assert.Equal(t, StatusAlive, n.Status())
}

func TestRename_RoundTrip(t *testing.T) {
	g := openGraph(t, New(), entity.Directed)
	n := mustNode(t, g, "a")

	old, err := n.Rename("b")
	require.NoError(t, err)
	assert.Equal(t, "a", old)
	assert.Equal(t, "b", nameOf(t, n))

	found, err := g.Node("b", true)
	require.NoError(t, err)
	assert.Same(t, n, found)
	_, err = g.Node("a", true)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)

	old, err = n.Rename(old)
	require.NoError(t, err)
	assert.Equal(t, "b", old)
	assert.Equal(t, "a", nameOf(t, n))

	mustNode(t, g, "taken")
	_, err = n.Rename("taken")
	assert.ErrorIs(t, err, gerrors.ErrNameInUse)
}

func TestSubgraph_Hierarchy(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)
	sg, err := g.Subgraph("cluster", false)
	require.NoError(t, err)
	again, err := g.Subgraph("cluster", false)
	require.NoError(t, err)
	assert.Same(t, sg, again)

	_, err = g.Subgraph("missing", true)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)

	parent, err := sg.Parent()
	require.NoError(t, err)
	assert.Same(t, g, parent)
	root, err := sg.Root()
	require.NoError(t, err)
	assert.Same(t, g, root)

	n := mustNode(t, sg, "inner")
	home, err := n.Graph()
	require.NoError(t, err)
	assert.Same(t, sg, home)

	inRoot, err := g.Node("inner", true)
	require.NoError(t, err)
	assert.Same(t, n, inRoot)

	outer := mustNode(t, g, "outer")
	contains, err := sg.Contains(outer)
	require.NoError(t, err)
	assert.False(t, contains)
	member, err := sg.IsRootMember(outer)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, sg.Insert(outer))
	contains, err = sg.Contains(outer)
	require.NoError(t, err)
	assert.True(t, contains)

	contains, err = g.Contains(sg)
	require.NoError(t, err)
	assert.True(t, contains)

	require.NoError(t, sg.Close())
	assert.Equal(t, StatusDead, sg.Status())
	assert.Equal(t, StatusAlive, n.Status())
	home, err = n.Graph()
	require.NoError(t, err)
	assert.Same(t, g, home)
	assert.NoError(t, sg.Close())
}

func TestClose_RootKillsEverything(t *testing.T) {
	rt := New()
	g := openGraph(t, rt, entity.Directed)
	sg, err := g.Subgraph("s", false)
	require.NoError(t, err)
	n := mustNode(t, sg, "a")
	e := mustEdge(t, g, n, NodeName("b"), "")

	require.NoError(t, g.Close())
	for _, obj := range []Object{g, sg, n, e} {
		assert.Equal(t, StatusDead, obj.Status(), obj.Type())
	}
	assert.Zero(t, rt.Proxies())

	_, err = g.Node("c", false)
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)
}

func TestWalks(t *testing.T) {
	g := openGraph(t, New(), entity.Directed)
	for _, name := range []string{"c", "a", "b"} {
		mustNode(t, g, name)
	}
	for _, name := range []string{"s1", "s2"} {
		_, err := g.Subgraph(name, false)
		require.NoError(t, err)
	}

	var nodes []string
	for n, err := range g.WalkNodes() {
		require.NoError(t, err)
		nodes = append(nodes, nameOf(t, n))
	}
	assert.Equal(t, []string{"c", "a", "b"}, nodes, "id order")

	var subs []string
	for sg, err := range g.Walk() {
		require.NoError(t, err)
		subs = append(subs, nameOf(t, sg))
	}
	assert.Equal(t, []string{"s1", "s2"}, subs)

	hub, err := g.Node("a", true)
	require.NoError(t, err)
	mustEdge(t, g, hub, NodeName("b"), "out")
	mustEdge(t, g, hub, hub, "loop")
	mustEdge(t, g, NodeName("c"), hub, "in")

	collect := func(seq func(func(*Edge, error) bool)) []string {
		var labels []string
		for e, err := range seq {
			require.NoError(t, err)
			label, err := e.Label()
			require.NoError(t, err)
			labels = append(labels, label)
		}
		return labels
	}
	assert.Equal(t, []string{"out", "loop", "in"}, collect(hub.WalkEdges()))
	assert.Equal(t, []string{"loop", "in"}, collect(hub.WalkInputs()))
	assert.Equal(t, []string{"out", "loop"}, collect(hub.WalkOutputs()))

	degree, err := hub.Degree(entity.Both)
	require.NoError(t, err)
	assert.Equal(t, 3, degree)
}

func TestWalk_RejectsForeignCursor(t *testing.T) {
	g1 := openGraph(t, New(), entity.Directed)
	mustNode(t, g1, "a")
	mustNode(t, g1, "b")
	g2 := openGraph(t, New(), entity.Directed)
	foreignNode := mustNode(t, g2, "a")
	foreignEdge := mustEdge(t, g2, foreignNode, NodeName("b"), "")
	foreignGraph, err := g2.Subgraph("s", false)
	require.NoError(t, err)
	_, err = g1.Subgraph("s", false)
	require.NoError(t, err)

	_, err = g1.NextNode(foreignNode)
	assert.ErrorIs(t, err, gerrors.ErrCrossGraph)
	_, err = g1.NextGraph(foreignGraph)
	assert.ErrorIs(t, err, gerrors.ErrCrossGraph)

	a, err := g1.Node("a", true)
	require.NoError(t, err)
	_, err = a.NextEdge(foreignEdge)
	assert.ErrorIs(t, err, gerrors.ErrCrossGraph)
}

func TestWalk_StopsOnDeletedCursor(t *testing.T) {
	g := openGraph(t, New(), entity.Directed)
	mustNode(t, g, "a")
	mustNode(t, g, "b")

	var errs []error
	for n, err := range g.WalkNodes() {
		if err != nil {
			errs = append(errs, err)
			break
		}
		require.NoError(t, n.Delete())
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], gerrors.ErrStaleReference)
}

func TestMember(t *testing.T) {
	g := openGraph(t, New(), entity.StrictDirected)
	e := mustEdge(t, g, NodeName("a"), NodeName("b"), "link")
	a, err := g.Node("a", true)
	require.NoError(t, err)
	require.NoError(t, a.Set("color", "red"))

	tests := []struct {
		name string
		obj  interface {
			Member(string) (any, bool, error)
		}
		key  string
		want any
	}{
		{"graph name", g, "name", "G"},
		{"graph kind", g, "kind", entity.StrictDirected},
		{"graph isroot", g, "isroot", true},
		{"graph isstrict", g, "isstrict", true},
		{"graph nnodes", g, "nnodes", 2},
		{"graph nedges", g, "nedges", 1},
		{"graph parent", g, "parent", nil},
		{"graph type", g, "type", "graph"},
		{"node id", a, "id", uint64(1)},
		{"node attribute", a, "color", "red"},
		{"edge label", e, "label", "link"},
		{"edge status", e, "status", StatusAlive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.obj.Member(tt.key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("proxies", func(t *testing.T) {
		tail, ok, err := e.Member("tail")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Same(t, a, tail)
		root, ok, err := g.Member("root")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Same(t, g, root)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, ok, err := a.Member("nothing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("dead proxy", func(t *testing.T) {
		require.NoError(t, e.Delete())
		status, ok, err := e.Member("status")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, StatusDead, status)
		_, _, err = e.Member("label")
		assert.ErrorIs(t, err, gerrors.ErrStaleReference)
	})
}

type countingObserver struct {
	inserted, deleted map[entity.Kind]int
}

func (c *countingObserver) Inserted(_, h entity.Handle)     { c.inserted[h.Kind]++ }
func (c *countingObserver) Deleted(_, h entity.Handle)      { c.deleted[h.Kind]++ }
func (c *countingObserver) Modified(entity.Handle, string) {}

func TestObserverSeesStructuralChanges(t *testing.T) {
	obs := &countingObserver{inserted: map[entity.Kind]int{}, deleted: map[entity.Kind]int{}}
	rt := New(WithObserver(obs))
	g := openGraph(t, rt, entity.Directed)
	mustEdge(t, g, NodeName("a"), NodeName("b"), "")
	require.NoError(t, g.Close())

	assert.Equal(t, map[entity.Kind]int{entity.KindGraph: 1, entity.KindNode: 2, entity.KindEdge: 1}, obs.inserted)
	assert.Equal(t, obs.inserted, obs.deleted)
}
