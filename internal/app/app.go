package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/proxygraph/internal/arena"
	"github.com/specialistvlad/proxygraph/internal/config"
	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/specialistvlad/proxygraph/internal/eventstream"
	"github.com/specialistvlad/proxygraph/internal/graph"
	"github.com/specialistvlad/proxygraph/internal/graphfile"
	"github.com/specialistvlad/proxygraph/internal/layout"
)

// Options selects the configuration of an App.
type Options struct {
	// ConfigPath is the HCL configuration file. Empty means
	// config.DefaultPath, which may be missing.
	ConfigPath string
	// LogLevel and LogFormat override the file values when set.
	LogLevel  string
	LogFormat string
	// Stdin is read for the "stdin" file name. Defaults to os.Stdin.
	Stdin io.Reader
}

// App holds the runtime and the collaborators built from the configuration.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *config.Model
	runtime   *graph.Runtime
	publisher *eventstream.SocketPublisher
}

// NewApp loads the configuration and builds the runtime. Output and renders
// go to outW, logs to logW. extra runtime options are applied last.
func NewApp(ctx context.Context, outW, logW io.Writer, opts Options, extra ...graph.Option) (*App, error) {
	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = config.DefaultPath, false
	}
	cfg, err := config.Load(ctx, path, required)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	store := arena.New()
	runtimeOpts := []graph.Option{
		graph.WithLogger(logger),
		graph.WithStore(store),
		graph.WithDefaultKind(cfg.Graph.DefaultKind),
		graph.WithLayoutRunner(layout.ExecRunner{Binary: cfg.Layout.Binary}),
		graph.WithOutput(outW),
		graph.WithFiles(graphfile.Files{Stdin: stdin, Stdout: outW, StreamFormat: graphfile.FormatHCL}),
	}

	a := &App{outW: outW, logger: logger, config: cfg}
	if cfg.EventStream.URL != "" {
		pub, err := eventstream.Dial(ctx, cfg.EventStream.URL, cfg.EventStream.Namespace)
		if err != nil {
			return nil, fmt.Errorf("failed to connect event stream: %w", err)
		}
		a.publisher = pub
		runtimeOpts = append(runtimeOpts, graph.WithObserver(eventstream.NewObserver(store, pub, logger)))
		logger.Debug("Event stream attached.", "url", cfg.EventStream.URL)
	}

	a.runtime = graph.New(append(runtimeOpts, extra...)...)
	logger.Debug("Graph runtime ready.", "default_kind", cfg.Graph.DefaultKind)
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.Model {
	return a.config
}

// Runtime returns the graph runtime.
func (a *App) Runtime() *graph.Runtime {
	return a.runtime
}

// Close releases the event stream connection.
func (a *App) Close() error {
	if a.publisher != nil {
		return a.publisher.Close()
	}
	return nil
}

// context attaches the app logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
