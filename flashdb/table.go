package flashdb

import (
	"fmt"
	"sort"
)

// Table is an immutable flash ID to Descriptor lookup.
// A Table is safe for concurrent use; nothing mutates it after construction.
type Table struct {
	parts map[uint32]Descriptor
}

var defaultTable = mustTable(builtinParts...)

// Default returns the built-in table. It is built once and shared.
func Default() *Table {
	return defaultTable
}

// NewTable builds a table from parts. Every descriptor must validate and
// IDs must be unique.
func NewTable(parts ...Descriptor) (*Table, error) {
	t := &Table{parts: make(map[uint32]Descriptor, len(parts))}
	for _, d := range parts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if prev, exists := t.parts[d.ID]; exists {
			return nil, fmt.Errorf("flash ID 0x%06X is listed twice (%s and %s)", d.ID, prev.Name, d.Name)
		}
		t.parts[d.ID] = clone(d)
	}
	return t, nil
}

func mustTable(parts ...Descriptor) *Table {
	t, err := NewTable(parts...)
	if err != nil {
		panic(err)
	}
	return t
}

// With returns a new table holding t's parts plus extra. Entries in extra
// replace entries of t with the same ID; t itself is left untouched.
func (t *Table) With(extra ...Descriptor) (*Table, error) {
	out := &Table{parts: make(map[uint32]Descriptor, len(t.parts)+len(extra))}
	for id, d := range t.parts {
		out.parts[id] = d
	}
	seen := make(map[uint32]bool, len(extra))
	for _, d := range extra {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("flash ID 0x%06X is listed twice", d.ID)
		}
		seen[d.ID] = true
		out.parts[d.ID] = clone(d)
	}
	return out, nil
}

// Lookup returns the descriptor for id, or ErrNotFound.
func (t *Table) Lookup(id uint32) (Descriptor, error) {
	d, ok := t.parts[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("0x%06X: %w", id, ErrNotFound)
	}
	return clone(d), nil
}

// Len returns the number of parts in the table.
func (t *Table) Len() int {
	return len(t.parts)
}

// All returns every descriptor, ordered by manufacturer and then ID.
func (t *Table) All() []Descriptor {
	out := make([]Descriptor, 0, len(t.parts))
	for _, d := range t.parts {
		out = append(out, clone(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Manufacturer != out[j].Manufacturer {
			return out[i].Manufacturer < out[j].Manufacturer
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// clone copies the opcode slices so callers cannot reach the table's storage.
func clone(d Descriptor) Descriptor {
	d.ReadSR = append([]byte(nil), d.ReadSR...)
	d.WriteSR = append([]byte(nil), d.WriteSR...)
	return d
}
