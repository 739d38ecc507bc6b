package graph

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/specialistvlad/proxygraph/internal/arena"
	"github.com/specialistvlad/proxygraph/internal/bridge"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/entitystore"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/specialistvlad/proxygraph/internal/graphfile"
	"github.com/specialistvlad/proxygraph/internal/layout"
	"github.com/specialistvlad/proxygraph/internal/registry"
)

// Runtime owns the entity store, the proxy registry and the collaborators of
// every graph opened through it.
type Runtime struct {
	mu          sync.Mutex
	store       entitystore.Store
	reg         *registry.Registry
	bridge      *bridge.Bridge
	logger      *slog.Logger
	layouts     *layout.Manager
	files       graphfile.Files
	out         io.Writer
	defaultKind string
	observers   []entitystore.Observer
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used by façade operations and the bridge.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// WithObserver chains obs behind the bridge of every root graph.
func WithObserver(obs entitystore.Observer) Option {
	return func(rt *Runtime) { rt.observers = append(rt.observers, obs) }
}

// WithStore replaces the in-memory arena.
func WithStore(store entitystore.Store) Option {
	return func(rt *Runtime) { rt.store = store }
}

// WithLayoutRunner sets the process used for layout and render.
func WithLayoutRunner(r layout.Runner) Option {
	return func(rt *Runtime) { rt.layouts = layout.NewManager(r) }
}

// WithFiles sets the streams and stream format used by Read and Write.
func WithFiles(files graphfile.Files) Option {
	return func(rt *Runtime) { rt.files = files }
}

// WithOutput sets the destination of Render calls without a destination.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) { rt.out = w }
}

// WithDefaultKind sets the graph kind used when Open gets an empty kind.
func WithDefaultKind(kind string) Option {
	return func(rt *Runtime) { rt.defaultKind = kind }
}

// New creates a runtime. Without options it uses an in-memory arena, the
// "dot" binary for layouts and the process streams.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		reg:         registry.New(),
		logger:      slog.New(slog.DiscardHandler),
		files:       graphfile.DefaultFiles(),
		out:         os.Stdout,
		defaultKind: entity.Directed,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.store == nil {
		rt.store = arena.New()
	}
	if rt.layouts == nil {
		rt.layouts = layout.NewManager(layout.ExecRunner{})
	}
	rt.bridge = bridge.New(rt.reg, rt.mint, rt.logger)
	for _, obs := range rt.observers {
		rt.bridge.AddObserver(obs)
	}
	return rt
}

// Proxies returns the number of live proxies.
func (rt *Runtime) Proxies() int {
	return rt.reg.Len()
}

// Open creates a new root graph. kind is one of "directed",
// "strictdirected", "undirected" and "strictundirected"; an empty kind
// selects the runtime default.
func (rt *Runtime) Open(name, kind string) (*Graph, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.open(name, kind)
}

func (rt *Runtime) open(name, kind string) (*Graph, error) {
	if kind == "" {
		kind = rt.defaultKind
	}
	desc, err := entity.ParseDesc(kind)
	if err != nil {
		return nil, err
	}
	h, err := rt.store.Open(name, desc, rt.bridge)
	if err != nil {
		return nil, fmt.Errorf("open graph %q: %w", name, err)
	}
	rt.logger.Debug("Opened graph.", "name", name, "kind", desc.String(), "handle", h.String())
	return rt.graphProxy(h), nil
}

// mint is the bridge factory.
func (rt *Runtime) mint(_, h entity.Handle) registry.Proxy {
	name, _ := rt.store.Name(h)
	b := base{rt: rt, h: h, name: name}
	switch h.Kind {
	case entity.KindGraph:
		return &Graph{base: b}
	case entity.KindNode:
		return &Node{base: b}
	default:
		return &Edge{base: b}
	}
}

// proxy returns the registered proxy of h. Every entity the store hands out
// was registered by the bridge when it was inserted; the fallback only
// covers stores that were populated before the bridge was installed.
func (rt *Runtime) proxy(h entity.Handle) registry.Proxy {
	if p, ok := rt.reg.Lookup(h); ok {
		return p
	}
	p := rt.mint(h, h)
	if err := rt.reg.Register(p); err != nil {
		rt.logger.Error("Failed to adopt entity.", "entity", h.String(), "error", err)
	}
	return p
}

func (rt *Runtime) graphProxy(h entity.Handle) *Graph {
	if h.IsZero() {
		return nil
	}
	return rt.proxy(h).(*Graph)
}

func (rt *Runtime) nodeProxy(h entity.Handle) *Node {
	if h.IsZero() {
		return nil
	}
	return rt.proxy(h).(*Node)
}

func (rt *Runtime) edgeProxy(h entity.Handle) *Edge {
	if h.IsZero() {
		return nil
	}
	return rt.proxy(h).(*Edge)
}

// own checks that obj is a live proxy of this runtime.
func (rt *Runtime) own(obj Object) (*base, error) {
	if obj == nil {
		return nil, fmt.Errorf("nil object: %w", gerrors.ErrInvalidValue)
	}
	b := obj.core()
	if b == nil {
		return nil, fmt.Errorf("nil object: %w", gerrors.ErrInvalidValue)
	}
	if b.rt != rt {
		return nil, fmt.Errorf("%s belongs to another runtime: %w", b.h, gerrors.ErrCrossGraph)
	}
	if err := b.live(); err != nil {
		return nil, err
	}
	return b, nil
}

// Equal reports whether a and b stand for the same entity.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	ca, cb := a.core(), b.core()
	return ca != nil && cb != nil && ca.rt == cb.rt && ca.h == cb.h
}
