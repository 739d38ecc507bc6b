package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/zclconf/go-cty/cty"
)

// Proxy is the registry's view of a proxy object.
type Proxy interface {
	// Handle returns the entity the proxy stands for.
	Handle() entity.Handle
	// Kill severs the proxy from its entity. Later accesses through the
	// proxy fail with gerrors.ErrStaleReference.
	Kill()
}

type table struct {
	token  uuid.UUID
	values map[string]cty.Value
}

// Registry holds the proxies and extended attribute tables of one runtime.
type Registry struct {
	mu       sync.RWMutex
	proxies  map[entity.Handle]Proxy
	extended map[entity.Handle]*table
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		proxies:  make(map[entity.Handle]Proxy),
		extended: make(map[entity.Handle]*table),
	}
}

// Register associates p with its handle. Overwriting a live association is a
// contract violation and fails with gerrors.ErrAlreadyRegistered.
func (r *Registry) Register(p Proxy) error {
	h := p.Handle()
	if h.IsZero() {
		return fmt.Errorf("register proxy without entity: %w", gerrors.ErrInvalidValue)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.proxies[h]; exists {
		return fmt.Errorf("register %s: %w", h, gerrors.ErrAlreadyRegistered)
	}
	r.proxies[h] = p
	return nil
}

// Lookup returns the proxy registered for h.
func (r *Registry) Lookup(h entity.Handle) (Proxy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proxies[h]
	return p, ok
}

// Unregister removes the proxy of h and releases its extended table. It
// returns the removed proxy, or nil when nothing was registered.
func (r *Registry) Unregister(h entity.Handle) Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.proxies[h]
	delete(r.proxies, h)
	delete(r.extended, h)
	return p
}

// Len returns the number of registered proxies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.proxies)
}

// SetExtended stores v under key in the extended table of h, creating the
// table on first use. A null value deletes the key, and the table is dropped
// with its last key. The returned token identifies the table, uuid.Nil once
// it is gone.
func (r *Registry) SetExtended(h entity.Handle, key string, v cty.Value) (uuid.UUID, error) {
	if key == "" {
		return uuid.Nil, fmt.Errorf("extended attribute key is empty: %w", gerrors.ErrInvalidKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.proxies[h]; !ok {
		return uuid.Nil, fmt.Errorf("extended attribute %q on %s: %w", key, h, gerrors.ErrStaleReference)
	}
	t, ok := r.extended[h]
	if v.IsNull() {
		if !ok {
			return uuid.Nil, nil
		}
		delete(t.values, key)
		if len(t.values) == 0 {
			delete(r.extended, h)
			return uuid.Nil, nil
		}
		return t.token, nil
	}
	if !ok {
		t = &table{token: uuid.New(), values: make(map[string]cty.Value)}
		r.extended[h] = t
	}
	t.values[key] = v
	return t.token, nil
}

// Extended returns the extended attribute key of h.
func (r *Registry) Extended(h entity.Handle, key string) (cty.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.extended[h]
	if !ok {
		return cty.NilVal, false
	}
	v, ok := t.values[key]
	return v, ok
}

// ExtendedKeys returns the extended attribute keys of h in sorted order.
func (r *Registry) ExtendedKeys(h entity.Handle) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.extended[h]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Token returns the token of the extended table of h, if it has one.
func (r *Registry) Token(h entity.Handle) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.extended[h]
	if !ok {
		return uuid.Nil, false
	}
	return t.token, true
}
