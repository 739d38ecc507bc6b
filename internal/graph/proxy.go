package graph

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/proxygraph/internal/attrdict"
	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Proxy status values.
const (
	StatusAlive = "alive"
	StatusDead  = "dead"
)

// Object is implemented by *Graph, *Node and *Edge.
type Object interface {
	Handle() entity.Handle
	Kill()
	Type() string
	Status() string
	core() *base
}

// base is the state shared by all proxies: the runtime, the entity handle,
// the cached display name and the status flag.
type base struct {
	rt   *Runtime
	h    entity.Handle
	name string
	dead bool
}

// Handle returns the entity handle of the proxy.
func (b *base) Handle() entity.Handle {
	return b.h
}

// Kill marks the proxy dead. It is called by the bridge with the runtime
// lock held.
func (b *base) Kill() {
	b.dead = true
}

// Type returns "graph", "node" or "edge".
func (b *base) Type() string {
	return b.h.Kind.String()
}

// Status returns StatusAlive or StatusDead.
func (b *base) Status() string {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if b.dead {
		return StatusDead
	}
	return StatusAlive
}

// String returns the cached name, which survives the entity.
func (b *base) String() string {
	return fmt.Sprintf("%s %q", b.h.Kind, b.name)
}

func (b *base) live() error {
	if b.dead {
		return fmt.Errorf("%s %q: %w", b.h.Kind, b.name, gerrors.ErrStaleReference)
	}
	return nil
}

// Name returns the current name of the entity.
func (b *base) Name() (string, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return "", err
	}
	return b.name, nil
}

// ID returns the stable id of the entity.
func (b *base) ID() (uint64, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return 0, err
	}
	return b.rt.store.ID(b.h)
}

// Rename changes the name of the entity and returns the old one. Nodes and
// edges renamed to "" get their automatic name back.
func (b *base) Rename(name string) (string, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return "", err
	}
	old := b.name
	if err := b.rt.store.Rename(b.h, name); err != nil {
		return "", err
	}
	b.name, _ = b.rt.store.Name(b.h)
	return old, nil
}

// RawGet returns the declared attribute key. Unset or empty values are
// reported as absent.
func (b *base) RawGet(key string) (string, bool, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return "", false, err
	}
	if attrdict.ValidateKey(key) != nil {
		return "", false, nil
	}
	v, ok, err := b.rt.store.Attr(b.h, key)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// Attr returns attribute key: the declared value if the key is declared for
// the entity's kind, otherwise the extended value.
func (b *base) Attr(key string) (cty.Value, bool, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return cty.NilVal, false, err
	}
	return b.attr(key)
}

func (b *base) attr(key string) (cty.Value, bool, error) {
	if attrdict.ValidateKey(key) != nil {
		return cty.NilVal, false, nil
	}
	v, ok, err := b.rt.store.Attr(b.h, key)
	if err != nil {
		return cty.NilVal, false, err
	}
	if ok {
		return cty.StringVal(v), true, nil
	}
	ext, ok := b.rt.reg.Extended(b.h, key)
	return ext, ok, nil
}

// SetAttr sets attribute key. Strings and numbers are stored as declared
// attributes, declaring the key with an empty default when needed; other
// values go to the extended table. A null value removes the extended value,
// or resets a declared one to "".
func (b *base) SetAttr(key string, v cty.Value) error {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return err
	}
	return b.setAttr(key, v)
}

func (b *base) setAttr(key string, v cty.Value) error {
	if err := attrdict.ValidateKey(key); err != nil {
		return err
	}
	dict, err := b.rt.store.Dict(b.h)
	if err != nil {
		return err
	}
	_, declared := dict.Lookup(b.h.Kind, key)

	if v.IsNull() {
		if _, ok := b.rt.reg.Extended(b.h, key); ok {
			return b.setExtended(key, v)
		}
		if declared {
			return b.rt.store.SetAttr(b.h, key, "")
		}
		return nil
	}

	s, isString, err := asString(v)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", key, err)
	}
	if !isString {
		if declared {
			return fmt.Errorf("declared attribute %q holds strings, got %s: %w", key, v.Type().FriendlyName(), gerrors.ErrInvalidValue)
		}
		return b.setExtended(key, v)
	}
	if !declared {
		if _, err := dict.Declare(b.h.Kind, key, ""); err != nil {
			return err
		}
	}
	return b.rt.store.SetAttr(b.h, key, s)
}

func (b *base) setExtended(key string, v cty.Value) error {
	token, err := b.rt.reg.SetExtended(b.h, key, v)
	if err != nil {
		return err
	}
	mark := ""
	if token != uuid.Nil {
		mark = token.String()
	}
	return b.rt.store.SetAttr(b.h, attrdict.ExtKey, mark)
}

// ExtendedKeys returns the keys of the extended attributes in sorted order.
func (b *base) ExtendedKeys() ([]string, error) {
	b.rt.mu.Lock()
	defer b.rt.mu.Unlock()
	if err := b.live(); err != nil {
		return nil, err
	}
	return b.rt.reg.ExtendedKeys(b.h), nil
}

// asString converts strings and numbers to their string form. isString is
// false for every other known type.
func asString(v cty.Value) (s string, isString bool, err error) {
	if !v.IsWhollyKnown() {
		return "", false, fmt.Errorf("unknown value: %w", gerrors.ErrInvalidValue)
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), true, nil
	case cty.Number:
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return "", false, fmt.Errorf("%w: %w", gerrors.ErrInvalidValue, err)
		}
		return sv.AsString(), true, nil
	}
	return "", false, nil
}

// declaredString converts v for storage in a declared attribute.
func declaredString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("null value: %w", gerrors.ErrInvalidValue)
	}
	s, ok, err := asString(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s is not a string: %w", v.Type().FriendlyName(), gerrors.ErrInvalidValue)
	}
	return s, nil
}

// Set is SetAttr for plain Go values, converted with gocty.
func (b *base) Set(key string, v any) error {
	cv, err := attrValue(v)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", key, err)
	}
	return b.SetAttr(key, cv)
}

// attrValue converts a native Go value into its corresponding cty.Value.
func attrValue(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return x, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w: %w", v, gerrors.ErrInvalidValue, err)
	}
	return gocty.ToCtyValue(v, ty)
}
