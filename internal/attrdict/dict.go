package attrdict

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/proxygraph/internal/entity"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
)

// ExtKey is the reserved bookkeeping symbol declared on all three classes.
// It holds the token of an entity's extended attribute table, if any.
const ExtKey = ".xattr"

// LabelKey is the edge attribute pre-declared by every new root graph.
const LabelKey = "label"

// Symbol is one declared attribute.
type Symbol struct {
	Class    entity.Kind
	Key      string
	Default  string
	Reserved bool
}

// Entry is a key and its effective value as reported by Entries.
type Entry struct {
	Key   string
	Value string
}

// Dictionary is the per-universe schema. It is not safe for concurrent use;
// the owning store serializes access.
type Dictionary struct {
	symbols [3][]*Symbol
	index   [3]map[string]*Symbol
	local   map[entity.Handle]*[3]map[string]string
}

// New returns an empty dictionary.
func New() *Dictionary {
	d := &Dictionary{local: make(map[entity.Handle]*[3]map[string]string)}
	for i := range d.index {
		d.index[i] = make(map[string]*Symbol)
	}
	return d
}

// ValidateKey rejects empty keys and keys in the reserved namespace.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty attribute key: %w", gerrors.ErrInvalidKey)
	}
	if strings.HasPrefix(key, ".") {
		return fmt.Errorf("attribute key %q is reserved: %w", key, gerrors.ErrInvalidKey)
	}
	return nil
}

// Declare registers key for class with the given default. Redeclaring an
// existing key returns the existing symbol with its default updated.
func (d *Dictionary) Declare(class entity.Kind, key, def string) (*Symbol, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return d.declare(class, key, def, false)
}

// DeclareReserved registers a bookkeeping key that callers cannot declare.
func (d *Dictionary) DeclareReserved(class entity.Kind, key, def string) (*Symbol, error) {
	return d.declare(class, key, def, true)
}

func (d *Dictionary) declare(class entity.Kind, key, def string, reserved bool) (*Symbol, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("declare %q for %s: %w", key, class, gerrors.ErrDeclaration)
	}
	if sym, ok := d.index[class][key]; ok {
		if sym.Reserved != reserved {
			return nil, fmt.Errorf("declare %q for %s: reserved flag mismatch: %w", key, class, gerrors.ErrDeclaration)
		}
		sym.Default = def
		return sym, nil
	}
	sym := &Symbol{Class: class, Key: key, Default: def, Reserved: reserved}
	d.symbols[class] = append(d.symbols[class], sym)
	d.index[class][key] = sym
	return sym, nil
}

// Lookup returns the symbol declared for class and key.
func (d *Dictionary) Lookup(class entity.Kind, key string) (*Symbol, bool) {
	if !class.Valid() {
		return nil, false
	}
	sym, ok := d.index[class][key]
	return sym, ok
}

// Symbols returns the symbols of class in declaration order, reserved ones
// included.
func (d *Dictionary) Symbols(class entity.Kind) []*Symbol {
	if !class.Valid() {
		return nil
	}
	out := make([]*Symbol, len(d.symbols[class]))
	copy(out, d.symbols[class])
	return out
}

// SetLocal records a subgraph-local override for a declared key.
func (d *Dictionary) SetLocal(g entity.Handle, class entity.Kind, key, value string) error {
	if _, ok := d.Lookup(class, key); !ok {
		return fmt.Errorf("local %s attribute %q is not declared: %w", class, key, gerrors.ErrNotFound)
	}
	tables, ok := d.local[g]
	if !ok {
		tables = &[3]map[string]string{}
		d.local[g] = tables
	}
	if tables[class] == nil {
		tables[class] = make(map[string]string)
	}
	tables[class][key] = value
	return nil
}

// Local returns the override g holds for key, if any.
func (d *Dictionary) Local(g entity.Handle, class entity.Kind, key string) (string, bool) {
	tables, ok := d.local[g]
	if !ok || !class.Valid() || tables[class] == nil {
		return "", false
	}
	v, ok := tables[class][key]
	return v, ok
}

// Locals returns a copy of the overrides g holds for class.
func (d *Dictionary) Locals(g entity.Handle, class entity.Kind) map[string]string {
	out := make(map[string]string)
	tables, ok := d.local[g]
	if !ok || !class.Valid() {
		return out
	}
	for k, v := range tables[class] {
		out[k] = v
	}
	return out
}

// DropLocal forgets every override held by g.
func (d *Dictionary) DropLocal(g entity.Handle) {
	delete(d.local, g)
}

// Resolve returns the effective default of key as seen from a subgraph. The
// chain lists the subgraph and its ancestors nearest first, root excluded.
func (d *Dictionary) Resolve(chain []entity.Handle, class entity.Kind, key string) (string, bool) {
	sym, ok := d.Lookup(class, key)
	if !ok {
		return "", false
	}
	for _, g := range chain {
		if v, ok := d.Local(g, class, key); ok {
			return v, true
		}
	}
	return sym.Default, true
}

// Entries enumerates every non-reserved key of class in declaration order
// with its effective value for the given chain (see Resolve).
func (d *Dictionary) Entries(chain []entity.Handle, class entity.Kind) []Entry {
	if !class.Valid() {
		return nil
	}
	out := make([]Entry, 0, len(d.symbols[class]))
	for _, sym := range d.symbols[class] {
		if sym.Reserved {
			continue
		}
		v, _ := d.Resolve(chain, class, sym.Key)
		out = append(out, Entry{Key: sym.Key, Value: v})
	}
	return out
}
