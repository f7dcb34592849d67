package selection

import (
	"sort"

	"github.com/roach88/squint/internal/qerr"
)

// Normalize returns the canonical form of a selection.
func Normalize(columns any) (Spec, error) {
	switch c := columns.(type) {
	case Spec:
		return c, nil
	case Dict:
		return normalizeMapping([]Entry(c), columns)
	case map[string]any:
		entries := make([]Entry, 0, len(c))
		for k, v := range c {
			entries = append(entries, Entry{Key: k, Value: v})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key.(string) < entries[j].Key.(string) })
		return normalizeMapping(entries, columns)
	}
	return normalizeValue(columns)
}

// normalizeValue handles every non-mapping form.
func normalizeValue(columns any) (Spec, error) {
	switch c := columns.(type) {
	case Grouped:
		return nil, qerr.Validation("mappings can not be nested, got %s", c)
	case Spec:
		return c, nil
	case string:
		return container(false, []any{c})
	case Tuple:
		return normalizeTuple([]string(c))
	case []string:
		return normalizeTuple(c)
	case List:
		return normalizeList([]any(c))
	case []any:
		return normalizeList(c)
	case SetOf:
		if len(c) > 1 {
			return container(false, []any{c})
		}
		return container(true, []any(c))
	case nil:
		return nil, qerr.Validation("unsupported columns format, got nil")
	}
	return nil, qerr.Validation("unsupported columns format, got %T", columns)
}

func normalizeTuple(names []string) (Spec, error) {
	if len(names) > 1 {
		return container(false, []any{Tuple(names)})
	}
	return container(false, stringsToAny(names))
}

func normalizeList(elems []any) (Spec, error) {
	if len(elems) > 1 {
		return container(false, []any{List(elems)})
	}
	return container(false, elems)
}

// container builds a list or set spec from the container's elements. Only
// the first element is meaningful once the default wrapping has been
// applied.
func container(set bool, elems []any) (Spec, error) {
	if len(elems) == 0 {
		return nil, qerr.Validation("expected container of 1 item, got 0 items")
	}
	elem, err := elemOf(elems[0])
	if err != nil {
		return nil, err
	}
	switch {
	case set:
		return Set{Elem: elem}, nil
	case elem.Tuple:
		return FieldGroups{Names: elem.Names}, nil
	default:
		return Fields{Name: elem.Names[0]}, nil
	}
}

// elemOf validates one selected element.
func elemOf(v any) (Elem, error) {
	switch x := v.(type) {
	case string:
		if err := validateName(x); err != nil {
			return Elem{}, err
		}
		return Elem{Names: []string{x}}, nil
	case Tuple:
		return tupleElem(stringsToAny(x))
	case []string:
		return tupleElem(stringsToAny(x))
	case List:
		return tupleElem([]any(x))
	case []any:
		return tupleElem(x)
	case SetOf:
		return Elem{}, qerr.Validation("sets of several fields are not supported, use SetOf{Tuple{...}}")
	}
	return Elem{}, qerr.Validation("expected field name or tuple of field names, got %T", v)
}

func tupleElem(vals []any) (Elem, error) {
	if len(vals) == 0 {
		return Elem{}, qerr.Validation("expected at least one field name, got empty tuple")
	}
	names := make([]string, len(vals))
	for i, v := range vals {
		name, ok := v.(string)
		if !ok {
			return Elem{}, qerr.Validation("expected field name, got %T", v)
		}
		if err := validateName(name); err != nil {
			return Elem{}, err
		}
		names[i] = name
	}
	return Elem{Names: names, Tuple: true}, nil
}

func validateName(name string) error {
	if name == "" {
		return qerr.Validation("field names must not be empty")
	}
	return nil
}

func normalizeMapping(entries []Entry, orig any) (Spec, error) {
	if len(entries) != 1 {
		return nil, qerr.Validation("expected container of 1 item, got %d items", len(entries))
	}
	entry := entries[0]

	key, err := keyElem(entry.Key)
	if err != nil {
		return nil, err
	}

	v := entry.Value
	switch x := v.(type) {
	case Dict, map[string]any, Grouped:
		return nil, qerr.Validation("mappings can not be nested, got %v", orig)
	case string:
		v = List{x}
	case Tuple:
		if len(x) > 1 {
			v = List{x}
		}
	case []string:
		if len(x) > 1 {
			v = List{Tuple(x)}
		}
	case List:
		if len(x) > 1 {
			v = List{x}
		}
	case []any:
		if len(x) > 1 {
			v = List{List(x)}
		}
	case SetOf:
		if len(x) > 1 {
			v = List{x}
		}
	}

	value, err := normalizeValue(v)
	if err != nil {
		return nil, err
	}
	return Grouped{Key: key, Value: value}, nil
}

func keyElem(k any) (Elem, error) {
	switch x := k.(type) {
	case string, Tuple, []string:
		return elemOf(x)
	}
	return Elem{}, qerr.Validation("expected field name or Tuple as mapping key, got %T", k)
}

func stringsToAny(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
