// Package eventstream publishes entity lifecycle changes to a socket.io
// server. An Observer turns store callbacks into Events and hands them to a
// Publisher; publishing failures are logged and never reach the store.
package eventstream

import (
	"log/slog"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/entitystore"
)

// Event names.
const (
	EventInserted = "graph:insert"
	EventDeleted  = "graph:delete"
	EventModified = "graph:modify"
)

// Event is the payload of every published message.
type Event struct {
	Op       string `json:"op"`
	Kind     string `json:"kind"`
	Universe uint32 `json:"universe"`
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Graph    string `json:"graph,omitempty"`
	Key      string `json:"key,omitempty"`
}

// Publisher delivers one event.
type Publisher interface {
	Emit(event string, payload any) error
}

// Reader is the part of the store the observer reads names and ids from.
type Reader interface {
	Name(h entity.Handle) (string, error)
	ID(h entity.Handle) (uint64, error)
}

// Observer implements entitystore.Observer on top of a Publisher.
type Observer struct {
	store  Reader
	pub    Publisher
	logger *slog.Logger
}

var _ entitystore.Observer = (*Observer)(nil)

// NewObserver creates an observer reading entity details from store.
func NewObserver(store Reader, pub Publisher, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Observer{store: store, pub: pub, logger: logger}
}

func (o *Observer) event(op string, h entity.Handle) Event {
	ev := Event{Op: op, Kind: h.Kind.String(), Universe: h.Universe}
	ev.Name, _ = o.store.Name(h)
	ev.ID, _ = o.store.ID(h)
	return ev
}

func (o *Observer) publish(name string, ev Event) {
	if err := o.pub.Emit(name, ev); err != nil {
		o.logger.Warn("Failed to publish graph event.", "event", name, "kind", ev.Kind, "name", ev.Name, "error", err)
	}
}

// Inserted publishes EventInserted with the name of the graph h joined.
func (o *Observer) Inserted(g, h entity.Handle) {
	ev := o.event("insert", h)
	if g != h {
		ev.Graph, _ = o.store.Name(g)
	}
	o.publish(EventInserted, ev)
}

// Deleted publishes EventDeleted. The entity is still readable.
func (o *Observer) Deleted(_, h entity.Handle) {
	o.publish(EventDeleted, o.event("delete", h))
}

// Modified publishes EventModified for declared attribute key.
func (o *Observer) Modified(h entity.Handle, key string) {
	ev := o.event("modify", h)
	ev.Key = key
	o.publish(EventModified, ev)
}
