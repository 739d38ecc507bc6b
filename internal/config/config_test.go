package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxygraph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "none.hcl")

	m, err := Load(ctx, path, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), m)

	_, err = Load(ctx, path, true)
	assert.ErrorContains(t, err, "failed to parse HCL file")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log {
  level  = "debug"
  format = "json"
}

graph {
  default_kind = "strictundirected"
}

event_stream {
  url = "http://localhost:3000/socket.io/"
}
`)
	m, err := Load(context.Background(), path, true)
	require.NoError(t, err)

	want := Default()
	want.Log = Log{Level: "debug", Format: "json"}
	want.Graph.DefaultKind = entity.StrictUndirected
	want.EventStream.URL = "http://localhost:3000/socket.io/"
	assert.Equal(t, want, m)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `log {`, "failed to parse HCL file"},
		{"unknown block", `cache { size = 1 }`, "failed to decode HCL file"},
		{"bad level", `log { level = "loud" }`, "invalid log level"},
		{"bad kind", `graph { default_kind = "multigraph" }`, "default_kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeConfig(t, tt.src), true)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	m := Default()
	m.Log.Format = "xml"
	m.Snapshot.Path = ""

	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
	assert.Contains(t, err.Error(), "snapshot path")
}
