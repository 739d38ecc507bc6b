package layout

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
	fail  error
}

func (f *fakeRunner) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	f.calls = append(f.calls, args)
	if f.fail != nil {
		return f.fail
	}
	src, _ := io.ReadAll(in)
	_, err := out.Write(append([]byte("positioned:"), src...))
	return err
}

var g = entity.Handle{Universe: 1, Kind: entity.KindGraph, Index: 0, Gen: 1}

func TestValidEngine(t *testing.T) {
	for _, e := range Engines() {
		assert.True(t, ValidEngine(e), e)
	}
	assert.False(t, ValidEngine("sfdp"))
	assert.Len(t, Engines(), 7)
}

func TestLayout(t *testing.T) {
	ctx := context.Background()
	r := &fakeRunner{}
	m := NewManager(r)

	t.Run("invalid engine does not run", func(t *testing.T) {
		err := m.Layout(ctx, g, "magic", []byte("digraph {}"))
		assert.ErrorIs(t, err, gerrors.ErrInvalidFormat)
		assert.Empty(t, r.calls)
	})

	t.Run("first layout", func(t *testing.T) {
		require.NoError(t, m.Layout(ctx, g, "neato", []byte("digraph {}")))
		assert.Equal(t, [][]string{{"-Kneato", "-Tdot"}}, r.calls)
		l, ok := m.Active(g)
		require.True(t, ok)
		assert.Equal(t, "neato", l.Engine)
		assert.Equal(t, "positioned:digraph {}", string(l.Positioned))
	})

	t.Run("second layout is refused", func(t *testing.T) {
		err := m.Layout(ctx, g, "dot", []byte("digraph {}"))
		assert.ErrorIs(t, err, gerrors.ErrLayoutExists)
	})

	t.Run("free allows a new layout", func(t *testing.T) {
		assert.True(t, m.Free(g))
		assert.False(t, m.Free(g))
		require.NoError(t, m.Layout(ctx, g, "dot", []byte("digraph {}")))
	})
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	r := &fakeRunner{}
	m := NewManager(r)

	var out bytes.Buffer
	err := m.Render(ctx, g, "svg", &out)
	assert.ErrorIs(t, err, gerrors.ErrLayoutMissing)

	require.NoError(t, m.Layout(ctx, g, "dot", []byte("x")))
	require.NoError(t, m.Render(ctx, g, "svg", &out))
	assert.Equal(t, []string{"-Kneato", "-n2", "-Tsvg"}, r.calls[1])
	assert.Equal(t, "positioned:positioned:x", out.String())

	t.Run("failure releases the layout", func(t *testing.T) {
		r.fail = errors.New("boom")
		err := m.Render(ctx, g, "png", io.Discard)
		assert.ErrorIs(t, err, gerrors.ErrIO)
		_, ok := m.Active(g)
		assert.False(t, ok)
	})
}
