package layout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

var engines = []string{"dot", "neato", "nop", "nop2", "twopi", "fdp", "circo"}

// Engines returns the accepted layout engine names.
func Engines() []string {
	return slices.Clone(engines)
}

// ValidEngine reports whether name is an accepted layout engine.
func ValidEngine(name string) bool {
	return slices.Contains(engines, name)
}

// Runner executes the layout program.
type Runner interface {
	Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error
}

// ExecRunner runs a Graphviz binary as a child process.
type ExecRunner struct {
	Binary string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	bin := r.Binary
	if bin == "" {
		bin = "dot"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", bin, err, msg)
		}
		return fmt.Errorf("%s: %w", bin, err)
	}
	return nil
}

// Layout is the state kept for a laid out graph.
type Layout struct {
	Engine     string
	Positioned []byte
}

// Manager tracks the active layouts.
type Manager struct {
	mu     sync.Mutex
	runner Runner
	active map[entity.Handle]*Layout
}

// NewManager creates a manager using runner.
func NewManager(runner Runner) *Manager {
	return &Manager{runner: runner, active: make(map[entity.Handle]*Layout)}
}

// Layout lays out graph g, given as DOT source, with engine.
func (m *Manager) Layout(ctx context.Context, g entity.Handle, engine string, dot []byte) error {
	logger := ctxlog.FromContext(ctx).With("graph", g.String(), "engine", engine)
	if !ValidEngine(engine) {
		return fmt.Errorf("layout engine %q: %w", engine, gerrors.ErrInvalidFormat)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[g]; exists {
		return fmt.Errorf("layout %s: %w", g, gerrors.ErrLayoutExists)
	}

	logger.Debug("Running layout.")
	var out bytes.Buffer
	if err := m.runner.Run(ctx, []string{"-K" + engine, "-Tdot"}, bytes.NewReader(dot), &out); err != nil {
		return fmt.Errorf("layout failed: %w: %w", gerrors.ErrIO, err)
	}
	m.active[g] = &Layout{Engine: engine, Positioned: out.Bytes()}
	logger.Debug("Layout complete.", "bytes", out.Len())
	return nil
}

// Free releases the layout of g. It reports whether one was active.
func (m *Manager) Free(g entity.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.active[g]
	delete(m.active, g)
	return ok
}

// Active returns the layout of g.
func (m *Manager) Active(g entity.Handle) (Layout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[g]
	if !ok {
		return Layout{}, false
	}
	return *l, true
}

// Render writes the laid out graph g to out in format. A failed render
// releases the layout.
func (m *Manager) Render(ctx context.Context, g entity.Handle, format string, out io.Writer) error {
	logger := ctxlog.FromContext(ctx).With("graph", g.String(), "format", format)
	if format == "" {
		return fmt.Errorf("render format is empty: %w", gerrors.ErrInvalidFormat)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[g]
	if !ok {
		return fmt.Errorf("render %s: %w", g, gerrors.ErrLayoutMissing)
	}

	logger.Debug("Rendering.")
	args := []string{"-Kneato", "-n2", "-T" + format}
	if err := m.runner.Run(ctx, args, bytes.NewReader(l.Positioned), out); err != nil {
		delete(m.active, g)
		logger.Warn("Render failed, layout released.", "error", err)
		return fmt.Errorf("render failed: %w: %w", gerrors.ErrIO, err)
	}
	return nil
}
