// Package bridge keeps the proxy registry in step with the entity store.
//
// A Bridge is the entitystore.Observer installed on every root graph. On
// insertion it confirms the entity's proxy or mints and registers a new one;
// on deletion it unregisters the proxy and kills it, so a caller still
// holding the proxy observes a stale reference instead of a dangling entity.
// Modifications cause no transition and are only logged.
package bridge

import (
	"log/slog"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/entitystore"
	"github.com/specialistvlad/proxygraph/internal/registry"
)

// Factory mints the proxy for entity h, inserted through graph g.
type Factory func(g, h entity.Handle) registry.Proxy

// Bridge implements entitystore.Observer.
type Bridge struct {
	reg     *registry.Registry
	factory Factory
	logger  *slog.Logger
	next    []entitystore.Observer
}

var _ entitystore.Observer = (*Bridge)(nil)

// New creates a bridge feeding reg with proxies made by factory.
func New(reg *registry.Registry, factory Factory, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{reg: reg, factory: factory, logger: logger}
}

// AddObserver chains obs after the bridge's own bookkeeping.
func (b *Bridge) AddObserver(obs entitystore.Observer) {
	if obs != nil {
		b.next = append(b.next, obs)
	}
}

// Inserted registers a proxy for h unless one already exists.
func (b *Bridge) Inserted(g, h entity.Handle) {
	if _, ok := b.reg.Lookup(h); ok {
		b.logger.Debug("Confirmed proxy.", "entity", h.String(), "graph", g.String())
	} else {
		p := b.factory(g, h)
		if err := b.reg.Register(p); err != nil {
			b.logger.Error("Failed to register proxy.", "entity", h.String(), "error", err)
		} else {
			b.logger.Debug("Registered proxy.", "entity", h.String(), "graph", g.String())
		}
	}
	for _, obs := range b.next {
		obs.Inserted(g, h)
	}
}

// Deleted unregisters the proxy of h and marks it dead.
func (b *Bridge) Deleted(g, h entity.Handle) {
	if p := b.reg.Unregister(h); p != nil {
		p.Kill()
		b.logger.Debug("Killed proxy.", "entity", h.String())
	}
	for _, obs := range b.next {
		obs.Deleted(g, h)
	}
}

// Modified is observed without a state transition.
func (b *Bridge) Modified(h entity.Handle, key string) {
	b.logger.Debug("Entity modified.", "entity", h.String(), "key", key)
	for _, obs := range b.next {
		obs.Modified(h, key)
	}
}
