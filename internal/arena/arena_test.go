package arena

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs observer callbacks as "op kind name" lines.
type recorder struct {
	a      *Arena
	events []string
}

func (r *recorder) Inserted(g, h entity.Handle) {
	name, _ := r.a.Name(h)
	r.events = append(r.events, fmt.Sprintf("insert %s %s", h.Kind, name))
}

func (r *recorder) Deleted(g, h entity.Handle) {
	name, err := r.a.Name(h)
	if err != nil {
		name = "<unreadable>"
	}
	r.events = append(r.events, fmt.Sprintf("delete %s %s", h.Kind, name))
}

func (r *recorder) Modified(h entity.Handle, key string) {
	r.events = append(r.events, fmt.Sprintf("modify %s %s", h.Kind, key))
}

func open(t *testing.T, kind string) (*Arena, *recorder, entity.Handle) {
	t.Helper()
	a := New()
	rec := &recorder{a: a}
	desc, err := entity.ParseDesc(kind)
	require.NoError(t, err)
	g, err := a.Open("G", desc, rec)
	require.NoError(t, err)
	return a, rec, g
}

func mustNode(t *testing.T, a *Arena, g entity.Handle, name string) entity.Handle {
	t.Helper()
	n, _, err := a.CreateNode(g, name)
	require.NoError(t, err)
	return n
}

func TestOpen_DeclaresLabelAndFiresInsert(t *testing.T) {
	a, rec, g := open(t, entity.Directed)

	dict, err := a.Dict(g)
	require.NoError(t, err)
	sym, ok := dict.Lookup(entity.KindEdge, "label")
	require.True(t, ok)
	assert.Equal(t, "", sym.Default)
	assert.Equal(t, []string{"insert graph G"}, rec.events)

	root, err := a.Root(g)
	require.NoError(t, err)
	assert.Equal(t, g, root)
	parent, err := a.Parent(g)
	require.NoError(t, err)
	assert.True(t, parent.IsZero())
}

func TestCreateNode_FindOrCreate(t *testing.T) {
	a, rec, g := open(t, entity.Directed)

	n1, created, err := a.CreateNode(g, "a")
	require.NoError(t, err)
	assert.True(t, created)
	n2, created, err := a.CreateNode(g, "a")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, n1, n2)

	count, err := a.NodeCount(g)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"insert graph G", "insert node a"}, rec.events)
}

func TestCreateNode_AutoNameUsesID(t *testing.T) {
	a, rec, g := open(t, entity.Directed)
	mustNode(t, a, g, "a")

	n := mustNode(t, a, g, "")
	id, err := a.ID(n)
	require.NoError(t, err)
	name, err := a.Name(n)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("node@%d", id), name)
	// The observer already sees the generated name.
	assert.Equal(t, "insert node "+name, rec.events[len(rec.events)-1])
}

func TestCreateNode_AutoNameSkipsTakenNames(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	first := mustNode(t, a, g, "node@2")

	second := mustNode(t, a, g, "")
	id, _ := a.ID(second)
	require.Equal(t, uint64(2), id)
	name, _ := a.Name(second)
	assert.Equal(t, "node@2_1", name)

	got, found, err := a.FindNode(g, "node@2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, got)

	require.NoError(t, a.Delete(second))
	got, found, _ = a.FindNode(g, "node@2")
	require.True(t, found, "deleting the generated node keeps the explicit one")
	assert.Equal(t, first, got)

	// Renaming to the empty name picks a free generated name too.
	third := mustNode(t, a, g, "x")
	thirdID, _ := a.ID(third)
	require.NoError(t, a.Rename(first, fmt.Sprintf("node@%d", thirdID)))
	require.NoError(t, a.Rename(third, ""))
	name, _ = a.Name(third)
	assert.Equal(t, fmt.Sprintf("node@%d_1", thirdID), name)
}

func TestSubgraph_SharedNodeIdentity(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	sub, created, err := a.CreateSubgraph(g, "cluster")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := a.CreateSubgraph(g, "cluster")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sub, again)

	inSub := mustNode(t, a, sub, "x")
	inRoot, found, err := a.FindNode(g, "x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, inSub, inRoot)

	rootOnly := mustNode(t, a, g, "y")
	_, found, err = a.FindNode(sub, "y")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, a.Insert(sub, rootOnly))
	_, found, err = a.FindNode(sub, "y")
	require.NoError(t, err)
	assert.True(t, found)

	home, err := a.Home(inSub)
	require.NoError(t, err)
	assert.Equal(t, sub, home)
}

func TestNextCursors(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	s1, _, _ := a.CreateSubgraph(g, "s1")
	s2, _, _ := a.CreateSubgraph(g, "s2")
	n1 := mustNode(t, a, g, "n1")
	n2 := mustNode(t, a, g, "n2")

	var subs []entity.Handle
	for h, err := a.NextSubgraph(g, entity.Handle{}); !h.IsZero(); h, err = a.NextSubgraph(g, h) {
		require.NoError(t, err)
		subs = append(subs, h)
	}
	assert.Equal(t, []entity.Handle{s1, s2}, subs)

	var nodes []entity.Handle
	for h, err := a.NextNode(g, entity.Handle{}); !h.IsZero(); h, err = a.NextNode(g, h) {
		require.NoError(t, err)
		nodes = append(nodes, h)
	}
	assert.Equal(t, []entity.Handle{n1, n2}, nodes)

	require.NoError(t, a.Delete(n1))
	_, err := a.NextNode(g, n1)
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)
}

func TestCreateEdge_StrictReturnsExisting(t *testing.T) {
	a, _, g := open(t, entity.StrictDirected)
	x := mustNode(t, a, g, "a")
	y := mustNode(t, a, g, "b")

	e1, created, err := a.CreateEdge(g, x, y, "e1")
	require.NoError(t, err)
	assert.True(t, created)
	e2, created, err := a.CreateEdge(g, x, y, "e2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, e1, e2)

	// The reverse direction is a different pair in a directed graph.
	_, created, err = a.CreateEdge(g, y, x, "")
	require.NoError(t, err)
	assert.True(t, created)

	count, err := a.EdgeCount(g)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateEdge_StrictUndirectedMatchesReverse(t *testing.T) {
	a, _, g := open(t, entity.StrictUndirected)
	x := mustNode(t, a, g, "a")
	y := mustNode(t, a, g, "b")

	e1, _, err := a.CreateEdge(g, x, y, "")
	require.NoError(t, err)
	e2, created, err := a.CreateEdge(g, y, x, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, e1, e2)
}

func TestCreateEdge_NonStrictAllowsParallel(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	x := mustNode(t, a, g, "a")
	y := mustNode(t, a, g, "b")

	e1, _, err := a.CreateEdge(g, x, y, "")
	require.NoError(t, err)
	e2, _, err := a.CreateEdge(g, x, y, "")
	require.NoError(t, err)
	assert.NotEqual(t, e1, e2)

	id, _ := a.ID(e2)
	name, _ := a.Name(e2)
	assert.Equal(t, fmt.Sprintf("edge@%d", id), name)
}

func TestCreateEdge_CrossGraph(t *testing.T) {
	a, _, g1 := open(t, entity.Directed)
	g2, err := a.Open("H", entity.Desc{Directed: true}, nil)
	require.NoError(t, err)
	x := mustNode(t, a, g1, "a")
	y := mustNode(t, a, g2, "b")

	_, _, err = a.CreateEdge(g1, x, y, "")
	assert.ErrorIs(t, err, gerrors.ErrCrossGraph)
}

func TestFindEdge(t *testing.T) {
	a, _, g := open(t, entity.Undirected)
	x := mustNode(t, a, g, "a")
	y := mustNode(t, a, g, "b")
	e, _, err := a.CreateEdge(g, x, y, "road")
	require.NoError(t, err)
	require.NoError(t, a.SetAttr(e, "label", "highway"))

	tests := []struct {
		name       string
		tail, head entity.Handle
		key        string
		found      bool
	}{
		{"any name", x, y, "", true},
		{"by name", x, y, "road", true},
		{"by label", x, y, "highway", true},
		{"reverse orientation", y, x, "road", true},
		{"wrong name", x, y, "rail", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := a.FindEdge(g, tt.tail, tt.head, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, e, got)
			}
		})
	}
}

func TestNextEdgeAndDegree(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	x := mustNode(t, a, g, "x")
	y := mustNode(t, a, g, "y")
	out, _, _ := a.CreateEdge(g, x, y, "")
	in, _, _ := a.CreateEdge(g, y, x, "")
	loop, _, _ := a.CreateEdge(g, x, x, "")

	walk := func(dir entity.Direction) []entity.Handle {
		var got []entity.Handle
		for h, err := a.NextEdge(g, x, entity.Handle{}, dir); !h.IsZero(); h, err = a.NextEdge(g, x, h, dir) {
			require.NoError(t, err)
			got = append(got, h)
		}
		return got
	}

	assert.Equal(t, []entity.Handle{out, loop, in}, walk(entity.Both))
	assert.Equal(t, []entity.Handle{out, loop}, walk(entity.Out))
	assert.Equal(t, []entity.Handle{in, loop}, walk(entity.In))

	for dir, want := range map[entity.Direction]int{entity.Both: 3, entity.Out: 2, entity.In: 2} {
		got, err := a.Degree(g, x, dir)
		require.NoError(t, err)
		assert.Equal(t, want, got, "direction %d", dir)
	}
}

func TestDeleteNode_CascadesEdges(t *testing.T) {
	a, rec, g := open(t, entity.Directed)
	hub := mustNode(t, a, g, "hub")
	var edges []entity.Handle
	for i := range 3 {
		leaf := mustNode(t, a, g, fmt.Sprintf("leaf%d", i))
		e, _, err := a.CreateEdge(g, hub, leaf, "")
		require.NoError(t, err)
		edges = append(edges, e)
	}
	rec.events = nil

	require.NoError(t, a.Delete(hub))

	for _, e := range edges {
		assert.False(t, a.Alive(e))
	}
	assert.False(t, a.Alive(hub))
	count, _ := a.EdgeCount(g)
	assert.Zero(t, count)
	// Edges go first and every entity is still readable when reported.
	assert.Equal(t, []string{
		"delete edge edge@1", "delete edge edge@2", "delete edge edge@3", "delete node hub",
	}, rec.events)

	err := a.Delete(hub)
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)
}

func TestDeleteGraph_ClosesHierarchy(t *testing.T) {
	a, rec, g := open(t, entity.Directed)
	outer, _, _ := a.CreateSubgraph(g, "outer")
	inner, _, _ := a.CreateSubgraph(outer, "inner")
	n := mustNode(t, a, inner, "n")
	rec.events = nil

	t.Run("subgraph close keeps nodes", func(t *testing.T) {
		require.NoError(t, a.Delete(outer))
		assert.Equal(t, []string{"delete graph inner", "delete graph outer"}, rec.events)
		assert.True(t, a.Alive(n))

		home, err := a.Home(n)
		require.NoError(t, err)
		assert.Equal(t, g, home)
	})

	t.Run("root close removes everything", func(t *testing.T) {
		rec.events = nil
		require.NoError(t, a.Delete(g))
		assert.Equal(t, []string{"delete node n", "delete graph G"}, rec.events)
		assert.False(t, a.Alive(n))
		assert.Zero(t, a.Universes())
	})
}

func TestStaleHandleDoesNotMatchReusedSlot(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	old := mustNode(t, a, g, "old")
	require.NoError(t, a.Delete(old))

	fresh := mustNode(t, a, g, "fresh")
	assert.Equal(t, old.Index, fresh.Index)
	assert.NotEqual(t, old, fresh)

	_, err := a.Name(old)
	assert.ErrorIs(t, err, gerrors.ErrStaleReference)
}

func TestRename(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	n := mustNode(t, a, g, "n")
	mustNode(t, a, g, "taken")
	id, _ := a.ID(n)

	require.NoError(t, a.Rename(n, "m"))
	_, found, _ := a.FindNode(g, "n")
	assert.False(t, found)
	got, found, _ := a.FindNode(g, "m")
	require.True(t, found)
	assert.Equal(t, n, got)
	after, _ := a.ID(n)
	assert.Equal(t, id, after)

	assert.ErrorIs(t, a.Rename(n, "taken"), gerrors.ErrNameInUse)

	require.NoError(t, a.Rename(n, ""))
	name, _ := a.Name(n)
	assert.Equal(t, fmt.Sprintf("node@%d", id), name)

	assert.ErrorIs(t, a.Rename(g, ""), gerrors.ErrInvalidValue)
}

func TestContains(t *testing.T) {
	a, _, g := open(t, entity.Directed)
	sub, _, _ := a.CreateSubgraph(g, "sub")
	other, _, _ := a.CreateSubgraph(g, "other")
	inSub := mustNode(t, a, sub, "a")
	rootOnly := mustNode(t, a, g, "b")

	tests := []struct {
		name  string
		g, h  entity.Handle
		wants bool
	}{
		{"root contains subgraph", g, sub, true},
		{"graph contains itself", sub, sub, true},
		{"sibling is not contained", other, sub, false},
		{"root contains every node", g, inSub, true},
		{"subgraph contains its node", sub, inSub, true},
		{"subgraph misses root node", sub, rootOnly, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Contains(tt.g, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.wants, got)
		})
	}
}

func TestAttributes(t *testing.T) {
	a, rec, g := open(t, entity.Directed)
	dict, _ := a.Dict(g)
	_, err := dict.Declare(entity.KindNode, "shape", "ellipse")
	require.NoError(t, err)
	sub, _, _ := a.CreateSubgraph(g, "sub")
	require.NoError(t, dict.SetLocal(sub, entity.KindNode, "shape", "box"))

	plain := mustNode(t, a, g, "plain")
	boxed := mustNode(t, a, sub, "boxed")

	v, ok, err := a.Attr(plain, "shape")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ellipse", v)

	v, _, _ = a.Attr(boxed, "shape")
	assert.Equal(t, "box", v)

	rec.events = nil
	require.NoError(t, a.SetAttr(plain, "shape", "circle"))
	assert.Equal(t, []string{"modify node shape"}, rec.events)

	// A new default does not touch values already set.
	_, err = dict.Declare(entity.KindNode, "shape", "square")
	require.NoError(t, err)
	v, _, _ = a.Attr(plain, "shape")
	assert.Equal(t, "circle", v)

	_, ok, err = a.Attr(plain, "color")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, a.SetAttr(plain, "color", "red"), gerrors.ErrNotFound)

	t.Run("graph values inherit from ancestors", func(t *testing.T) {
		_, err := dict.Declare(entity.KindGraph, "rankdir", "TB")
		require.NoError(t, err)
		require.NoError(t, a.SetAttr(g, "rankdir", "LR"))
		v, _, err := a.Attr(sub, "rankdir")
		require.NoError(t, err)
		assert.Equal(t, "LR", v)
	})
}
