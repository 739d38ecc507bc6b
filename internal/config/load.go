package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/proxygraph/internal/ctxlog"
)

// fileRoot decodes the top-level blocks of a configuration file.
type fileRoot struct {
	Log         *Log         `hcl:"log,block"`
	Graph       *Graph       `hcl:"graph,block"`
	Layout      *Layout      `hcl:"layout,block"`
	Snapshot    *Snapshot    `hcl:"snapshot,block"`
	EventStream *EventStream `hcl:"event_stream,block"`
}

// Load reads the configuration file at path over the defaults. A missing
// file yields the defaults unless required is set.
func Load(ctx context.Context, path string, required bool) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	m := Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !required {
		logger.Debug("No configuration file, using defaults.", "path", path)
		return m, m.Validate()
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	m.merge(&root)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	logger.Debug("Configuration loaded.", "path", path)
	return m, nil
}

func (m *Model) merge(root *fileRoot) {
	if b := root.Log; b != nil {
		set(&m.Log.Level, b.Level)
		set(&m.Log.Format, b.Format)
	}
	if b := root.Graph; b != nil {
		set(&m.Graph.DefaultKind, b.DefaultKind)
	}
	if b := root.Layout; b != nil {
		set(&m.Layout.Binary, b.Binary)
	}
	if b := root.Snapshot; b != nil {
		set(&m.Snapshot.Path, b.Path)
	}
	if b := root.EventStream; b != nil {
		set(&m.EventStream.URL, b.URL)
		set(&m.EventStream.Namespace, b.Namespace)
	}
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
