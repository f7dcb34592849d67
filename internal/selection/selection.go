// Package selection normalizes column selections.
//
// Callers describe which columns to select, and how to group them, with a
// small mini-language:
//
//	"A"                              a list of values from column A
//	Tuple{"A", "B"}                  a list of (A, B) tuples
//	List{"A"}, List{Tuple{"A","B"}}  explicit list containers
//	SetOf{"A"}                       the distinct values of A
//	Dict{{Key: "A", Value: "B"}}     values of B grouped by A
//	map[string]any{"A": SetOf{"B"}}  distinct values of B grouped by A
//
// Normalize maps any accepted form to one of the four canonical Spec
// variants. It is pure and idempotent: a canonical Spec normalizes to
// itself.
package selection

import (
	"strconv"
	"strings"
)

// Tuple is a group of field names selected together as one element.
type Tuple []string

// List is an explicit list container.
type List []any

// SetOf is an explicit set container.
type SetOf []any

// Entry is one key/value pair of a Dict.
type Entry struct {
	Key   any
	Value any
}

// Dict is an ordered mapping selection. Only one entry is allowed.
type Dict []Entry

// Spec is a normalized selection.
//
// This is a sealed interface - only types in this package implement it.
//
// Spec variants:
//   - Fields: a list of values from one column
//   - FieldGroups: a list of tuples from several columns
//   - Set: distinct values (or tuples)
//   - Grouped: a one-level mapping from key to Fields, FieldGroups or Set
type Spec interface {
	specNode() // Marker method - seals interface to this package
	String() string
}

// Elem is one selected element: a bare field, or a tuple of fields.
type Elem struct {
	Names []string
	Tuple bool
}

// String renders a bare field as "A" and a tuple as ("A", "B").
func (e Elem) String() string {
	if !e.Tuple && len(e.Names) == 1 {
		return strconv.Quote(e.Names[0])
	}
	quoted := make([]string, len(e.Names))
	for i, name := range e.Names {
		quoted[i] = strconv.Quote(name)
	}
	if len(quoted) == 1 {
		return "(" + quoted[0] + ",)"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// Fields selects the values of a single column.
type Fields struct {
	Name string
}

func (Fields) specNode() {}

func (s Fields) String() string { return "[" + s.Elem().String() + "]" }

// Elem returns the selected element.
func (s Fields) Elem() Elem { return Elem{Names: []string{s.Name}} }

// FieldGroups selects tuples built from several columns.
type FieldGroups struct {
	Names []string
}

func (FieldGroups) specNode() {}

func (s FieldGroups) String() string { return "[" + s.Elem().String() + "]" }

// Elem returns the selected element.
func (s FieldGroups) Elem() Elem { return Elem{Names: s.Names, Tuple: true} }

// Set selects distinct elements.
type Set struct {
	Elem Elem
}

func (Set) specNode() {}

func (s Set) String() string { return "{" + s.Elem.String() + "}" }

// Grouped maps each distinct key to a Fields, FieldGroups or Set value.
type Grouped struct {
	Key   Elem
	Value Spec
}

func (Grouped) specNode() {}

func (s Grouped) String() string { return "{" + s.Key.String() + ": " + s.Value.String() + "}" }

// Split returns the key and value parts of spec. Non-grouped specs have a
// zero key.
func Split(spec Spec) (Elem, Spec) {
	if g, ok := spec.(Grouped); ok {
		return g.Key, g.Value
	}
	return Elem{}, spec
}

// ElemOf returns the selected element of a non-grouped spec.
func ElemOf(spec Spec) Elem {
	switch s := spec.(type) {
	case Fields:
		return s.Elem()
	case FieldGroups:
		return s.Elem()
	case Set:
		return s.Elem
	case Grouped:
		return ElemOf(s.Value)
	}
	return Elem{}
}

// IsSet reports whether the (value part of the) spec selects distinct
// elements.
func IsSet(spec Spec) bool {
	_, value := Split(spec)
	_, ok := value.(Set)
	return ok
}

// Columns returns every field named by spec: key fields, then value fields.
func Columns(spec Spec) []string {
	key, value := Split(spec)
	cols := append([]string(nil), key.Names...)
	return append(cols, ElemOf(value).Names...)
}
