package queryir

import (
	"slices"
	"sort"

	"github.com/roach88/squint/internal/predicate"
	"github.com/roach88/squint/internal/value"
)

// Where holds filter keywords: field name → condition. A value.Set or a
// []any condition means membership, a matcher-like condition (see
// predicate.IsPredicate) means Match, anything else means Equals.
type Where map[string]any

// Fields returns the filtered field names in sorted order.
func (w Where) Fields() []string {
	fields := make([]string, 0, len(w))
	for k := range w {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// Clone returns a shallow copy of w.
func (w Where) Clone() Where {
	if w == nil {
		return nil
	}
	out := make(Where, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// FromWhere translates filter keywords into a predicate. It returns nil for
// an empty filter.
func FromWhere(w Where) Predicate {
	fields := w.Fields()
	if len(fields) == 0 {
		return nil
	}

	preds := make([]Predicate, 0, len(fields))
	for _, field := range fields {
		preds = append(preds, fromCondition(field, w[field]))
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}

func fromCondition(field string, cond any) Predicate {
	switch c := cond.(type) {
	case value.Set:
		return In{Field: field, Values: slices.Clone([]any(c))}
	case []any:
		return In{Field: field, Values: []any(value.NewSet(c...))}
	}
	if predicate.IsPredicate(cond) {
		return Match{Field: field, Matcher: predicate.For(cond)}
	}
	return Equals{Field: field, Value: cond}
}
