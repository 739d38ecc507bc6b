package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/proxygraph/internal/graph"
	"github.com/specialistvlad/proxygraph/internal/graphfile"
	"github.com/specialistvlad/proxygraph/internal/snapshot"
)

// Summary describes a graph file.
type Summary struct {
	Name string
	Kind string
	graphfile.Stats
}

// read opens the graph stored in name. The caller closes it.
func (a *App) read(ctx context.Context, name string) (*graph.Graph, error) {
	g, err := a.runtime.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %s: %w", name, err)
	}
	return g, nil
}

func (a *App) closeGraph(g *graph.Graph) {
	if err := g.Close(); err != nil {
		a.logger.Warn("Failed to close graph.", "graph", g.String(), "error", err)
	}
}

// Convert reads in and writes it to out; both extensions select a format.
func (a *App) Convert(ctx context.Context, in, out string) error {
	ctx = a.context(ctx)
	g, err := a.read(ctx, in)
	if err != nil {
		return err
	}
	defer a.closeGraph(g)

	if err := g.Write(ctx, out); err != nil {
		return fmt.Errorf("failed to write graph %s: %w", out, err)
	}
	a.logger.Info("Graph converted.", "from", in, "to", out)
	return nil
}

// Stats summarizes the graph stored in in.
func (a *App) Stats(ctx context.Context, in string) (Summary, error) {
	ctx = a.context(ctx)
	g, err := a.read(ctx, in)
	if err != nil {
		return Summary{}, err
	}
	defer a.closeGraph(g)

	doc, err := g.Document()
	if err != nil {
		return Summary{}, err
	}
	return Summary{Name: doc.Name, Kind: doc.Kind, Stats: doc.Stats()}, nil
}

// Render lays out in with engine and renders it in format to out; an empty
// out renders to the app output.
func (a *App) Render(ctx context.Context, in, engine, format, out string) error {
	ctx = a.context(ctx)
	g, err := a.read(ctx, in)
	if err != nil {
		return err
	}
	defer a.closeGraph(g)

	if err := g.Layout(ctx, engine); err != nil {
		return fmt.Errorf("failed to lay out graph: %w", err)
	}
	if err := g.Render(ctx, format, out); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}
	a.logger.Info("Graph rendered.", "engine", engine, "format", format, "output", out)
	return nil
}

func (a *App) openSnapshots(ctx context.Context) (*snapshot.Store, error) {
	store, err := snapshot.Open(ctx, a.config.Snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}

// SaveSnapshot stores the graph in in and returns the snapshot id.
func (a *App) SaveSnapshot(ctx context.Context, in string) (string, error) {
	ctx = a.context(ctx)
	g, err := a.read(ctx, in)
	if err != nil {
		return "", err
	}
	defer a.closeGraph(g)

	store, err := a.openSnapshots(ctx)
	if err != nil {
		return "", err
	}
	defer store.Close()

	id, err := g.Snapshot(ctx, store)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	a.logger.Info("Snapshot saved.", "id", id, "source", in)
	return id, nil
}

// LoadSnapshot restores snapshot id and writes it to out.
func (a *App) LoadSnapshot(ctx context.Context, id, out string) error {
	ctx = a.context(ctx)
	store, err := a.openSnapshots(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := a.runtime.Restore(ctx, store, id)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot %s: %w", id, err)
	}
	defer a.closeGraph(g)

	if err := g.Write(ctx, out); err != nil {
		return fmt.Errorf("failed to write graph %s: %w", out, err)
	}
	return nil
}

// ListSnapshots returns the stored snapshots, newest first.
func (a *App) ListSnapshots(ctx context.Context) ([]snapshot.Info, error) {
	ctx = a.context(ctx)
	store, err := a.openSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx)
}

// DeleteSnapshot removes snapshot id.
func (a *App) DeleteSnapshot(ctx context.Context, id string) error {
	ctx = a.context(ctx)
	store, err := a.openSnapshots(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(ctx, id)
}
