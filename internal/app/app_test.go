package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/specialistvlad/proxygraph/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roadsHCL = `
graph "roads" {
  kind = "undirected"

  declare "node" "color" {
    default = "black"
  }

  node "x" {
    attrs = { color = "red" }
  }

  edge "x" "y" {
    name = "main"
  }

  subgraph "north" {
    nodes = ["x"]
  }
}
`

// echoRunner stands in for the Graphviz binary.
type echoRunner struct {
	calls [][]string
}

func (r *echoRunner) Run(_ context.Context, args []string, in io.Reader, out io.Writer) error {
	r.calls = append(r.calls, args)
	_, err := io.Copy(out, in)
	return err
}

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roads.hcl")
	require.NoError(t, os.WriteFile(path, []byte(roadsHCL), 0600))
	return path
}

func TestConvertAndStats(t *testing.T) {
	ctx := context.Background()
	a, _, logs := SetupAppTest(t, Options{})
	in := writeGraph(t)
	out := filepath.Join(t.TempDir(), "roads.yaml.zst")

	require.NoError(t, a.Convert(ctx, in, out))
	assert.Contains(t, logs.String(), "Graph converted.")

	summary, err := a.Stats(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, "roads", summary.Name)
	assert.Equal(t, "undirected", summary.Kind)
	assert.Equal(t, 2, summary.Nodes)
	assert.Equal(t, 1, summary.Edges)
	assert.Equal(t, 1, summary.Subgraphs)

	assert.Zero(t, a.Runtime().Proxies(), "use-cases close their graphs")
}

func TestConvert_StreamsAndErrors(t *testing.T) {
	ctx := context.Background()
	a, out, _ := SetupAppTest(t, Options{Stdin: strings.NewReader(roadsHCL)})

	require.NoError(t, a.Convert(ctx, "stdin", "stdout"))
	assert.Contains(t, out.String(), `graph "roads"`)

	err := a.Convert(ctx, filepath.Join(t.TempDir(), "missing.hcl"), "stdout")
	assert.ErrorIs(t, err, gerrors.ErrIO)
	err = a.Convert(ctx, writeGraph(t), filepath.Join(t.TempDir(), "roads.txt"))
	assert.ErrorIs(t, err, gerrors.ErrInvalidFormat)
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	runner := &echoRunner{}
	a, out, _ := SetupAppTest(t, Options{}, graph.WithLayoutRunner(runner))

	require.NoError(t, a.Render(ctx, writeGraph(t), "neato", "svg", ""))
	assert.Equal(t, [][]string{{"-Kneato", "-Tdot"}, {"-Kneato", "-n2", "-Tsvg"}}, runner.calls)
	assert.Contains(t, out.String(), `graph "roads" {`)

	err := a.Render(ctx, writeGraph(t), "sfdp", "svg", "")
	assert.ErrorIs(t, err, gerrors.ErrInvalidFormat)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	a, _, _ := SetupAppTest(t, Options{})

	id, err := a.SaveSnapshot(ctx, writeGraph(t))
	require.NoError(t, err)

	list, err := a.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "roads", list[0].Name)

	restored := filepath.Join(t.TempDir(), "restored.hcl")
	require.NoError(t, a.LoadSnapshot(ctx, id, restored))
	summary, err := a.Stats(ctx, restored)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Nodes)

	require.NoError(t, a.DeleteSnapshot(ctx, id))
	err = a.LoadSnapshot(ctx, id, restored)
	assert.ErrorIs(t, err, gerrors.ErrNotFound)
}

func TestNewApp_Config(t *testing.T) {
	ctx := context.Background()

	t.Run("flag overrides file", func(t *testing.T) {
		a, _, logs := SetupAppTest(t, Options{LogLevel: "warn"})
		assert.Equal(t, "warn", a.Config().Log.Level)
		assert.NotContains(t, logs.String(), "Logger configured successfully.")
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := NewApp(ctx, io.Discard, io.Discard, Options{ConfigPath: writeConfig(t, ""), LogFormat: "xml"})
		assert.ErrorContains(t, err, "invalid log format")
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := NewApp(ctx, io.Discard, io.Discard, Options{ConfigPath: filepath.Join(t.TempDir(), "none.hcl")})
		assert.ErrorContains(t, err, "failed to load configuration")
	})

	t.Run("unreachable event stream", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		path := writeConfig(t, `event_stream { url = "http://127.0.0.1:1/socket.io/" }`)
		_, err := NewApp(cancelled, io.Discard, io.Discard, Options{ConfigPath: path})
		assert.ErrorContains(t, err, "failed to connect event stream")
	})
}

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxygraph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}
