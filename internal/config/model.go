package config

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/proxygraph/internal/entity"
)

// DefaultPath is the configuration file looked up when no path is given.
const DefaultPath = "proxygraph.hcl"

// Model is the complete application configuration.
type Model struct {
	Log         Log
	Graph       Graph
	Layout      Layout
	Snapshot    Snapshot
	EventStream EventStream
}

// Log configures the slog handler.
type Log struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

// Graph holds defaults for opened graphs.
type Graph struct {
	DefaultKind string `hcl:"default_kind,optional"`
}

// Layout configures the Graphviz process.
type Layout struct {
	Binary string `hcl:"binary,optional"`
}

// Snapshot locates the snapshot database.
type Snapshot struct {
	Path string `hcl:"path,optional"`
}

// EventStream points at a socket.io server. An empty URL disables the
// stream.
type EventStream struct {
	URL       string `hcl:"url,optional"`
	Namespace string `hcl:"namespace,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Model {
	return &Model{
		Log:         Log{Level: "info", Format: "text"},
		Graph:       Graph{DefaultKind: entity.Directed},
		Layout:      Layout{Binary: "dot"},
		Snapshot:    Snapshot{Path: "proxygraph.db"},
		EventStream: EventStream{Namespace: "/"},
	}
}

// Validate checks every enumerated value of m.
func (m *Model) Validate() error {
	var errs []error
	switch m.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", m.Log.Level))
	}
	switch m.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", m.Log.Format))
	}
	if _, err := entity.ParseDesc(m.Graph.DefaultKind); err != nil {
		errs = append(errs, fmt.Errorf("graph default_kind: %w", err))
	}
	if m.Layout.Binary == "" {
		errs = append(errs, errors.New("layout binary must not be empty"))
	}
	if m.Snapshot.Path == "" {
		errs = append(errs, errors.New("snapshot path must not be empty"))
	}
	return errors.Join(errs...)
}
