package value

import "strings"

// Tuple is a single data element made of several fields.
type Tuple []any

// String renders the tuple as "(a, b)".
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = Repr(v)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Set is a collection of values in first-seen order with no two members
// sharing a Key.
type Set []any

// NewSet builds a Set from vals, dropping later duplicates.
func NewSet(vals ...any) Set {
	seen := make(map[string]struct{}, len(vals))
	out := make(Set, 0, len(vals))
	for _, v := range vals {
		k := Key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Contains reports whether v is a member of s.
func (s Set) Contains(v any) bool {
	k := Key(v)
	for _, m := range s {
		if Key(m) == k {
			return true
		}
	}
	return false
}

// Item is one key/value pair of a mapping.
type Item struct {
	Key   any
	Value any
}

// Map is an insertion-ordered mapping. Keys are compared through Key, so
// Tuple keys and mixed numeric keys work as expected.
type Map struct {
	items []Item
	index map[string]int
}

// NewMap returns a Map holding items. Later duplicates replace the value of
// the first occurrence without moving it.
func NewMap(items ...Item) *Map {
	m := &Map{index: make(map[string]int, len(items))}
	for _, it := range items {
		m.Set(it.Key, it.Value)
	}
	return m
}

// Set assigns v to k.
func (m *Map) Set(k, v any) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	hk := Key(k)
	if i, ok := m.index[hk]; ok {
		m.items[i].Value = v
		return
	}
	m.index[hk] = len(m.items)
	m.items = append(m.items, Item{Key: k, Value: v})
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[Key(k)]
	if !ok {
		return nil, false
	}
	return m.items[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	keys := make([]any, m.Len())
	for i := range keys {
		keys[i] = m.items[i].Key
	}
	return keys
}

// Items returns a copy of the entries in insertion order.
func (m *Map) Items() []Item {
	if m == nil {
		return nil
	}
	return append([]Item(nil), m.items...)
}

// String renders the map as "{k: v, ...}".
func (m *Map) String() string {
	parts := make([]string, 0, m.Len())
	for _, it := range m.Items() {
		parts = append(parts, Repr(it.Key)+": "+Repr(it.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
