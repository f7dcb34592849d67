package query

import (
	"fmt"
	"reflect"

	"github.com/roach88/squint/internal/aggregate"
	"github.com/roach88/squint/internal/predicate"
	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/value"
)

// collection returns v as a Result when v is a collection of data
// elements. Tuples, text, blobs and scalars are single elements.
func collection(v any) (*result.Result, bool) {
	switch x := v.(type) {
	case *result.Result:
		return x, true
	case nil, value.Tuple, string, []byte:
		return nil, false
	case value.Set:
		return result.FromSlice([]any(x), result.Set), true
	case []any:
		return result.FromSlice(x, result.List), true
	case *value.Map:
		return result.FromMap(x), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	vals := make([]any, rv.Len())
	for i := range vals {
		vals[i] = rv.Index(i).Interface()
	}
	return result.FromSlice(vals, result.List), true
}

// items returns v as a Map Result when it holds key/value items.
func items(v any) (*result.Result, bool) {
	r, ok := collection(v)
	if !ok || r.EvalType() != result.Map {
		return nil, false
	}
	return r, true
}

func makeResult(v any) (*result.Result, error) {
	r, ok := collection(v)
	if !ok {
		return nil, qerr.Type("unable to determine evaluation type for %T", v)
	}
	return r, nil
}

func nextItem(r *result.Result) (value.Item, bool, error) {
	if !r.Next() {
		return value.Item{}, false, r.Err()
	}
	item, ok := r.Value().(value.Item)
	if !ok {
		return value.Item{}, false, fmt.Errorf("items result yielded %T", r.Value())
	}
	return item, true, nil
}

// applyToData calls fn with data, or with each group value when data
// holds items.
func applyToData(fn MapFunc, data any) (any, error) {
	groups, ok := items(data)
	if !ok {
		return fn(data)
	}
	next := func() (any, bool, error) {
		item, ok, err := nextItem(groups)
		if !ok {
			return nil, false, err
		}
		v, err := fn(item.Value)
		if err != nil {
			return nil, false, err
		}
		return value.Item{Key: item.Key, Value: v}, true, nil
	}
	return result.New(result.Func(next), result.Map, groups.Close), nil
}

// each returns an iterator over fn applied to the elements of r.
func each(r *result.Result, fn MapFunc) result.Iterator {
	return result.Func(func() (any, bool, error) {
		if !r.Next() {
			return nil, false, r.Err()
		}
		v, err := fn(r.Value())
		return v, err == nil, err
	})
}

func mapData(fn MapFunc, data any) (any, error) {
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return fn(v)
		}
		return result.New(each(r, fn), result.List, r.Close), nil
	}, data)
}

// spread returns the fields of a tuple element, or the element alone.
func spread(v any) []any {
	if t, ok := v.(value.Tuple); ok {
		return []any(t)
	}
	return []any{v}
}

func starmapData(fn StarFunc, data any) (any, error) {
	call := func(v any) (any, error) { return fn(spread(v)...) }
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return call(v)
		}
		return result.New(each(r, call), result.List, r.Close), nil
	}, data)
}

func filterData(pred any, data any) (any, error) {
	m := predicate.For(pred)
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return nil, qerr.Type("filter expects a collection of data elements, got 1 data element: %s", value.Repr(v))
		}
		next := func() (any, bool, error) {
			for r.Next() {
				if x := r.Value(); m.Match(x) {
					return x, true, nil
				}
			}
			return nil, false, r.Err()
		}
		return result.New(result.Func(next), r.EvalType(), r.Close), nil
	}, data)
}

func reduceData(fn ReduceFunc, data any, init InitFunc) (any, error) {
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return v, nil
		}
		defer r.Close()

		var acc any
		if init != nil {
			acc = init()
		} else {
			if !r.Next() {
				if err := r.Err(); err != nil {
					return nil, err
				}
				return nil, qerr.Type("reduce of empty sequence with no initial value")
			}
			acc = r.Value()
		}
		for r.Next() {
			var err error
			if acc, err = fn(acc, r.Value()); err != nil {
				return nil, err
			}
		}
		return acc, r.Err()
	}, data)
}

// aggregateData applies f to a collection of data elements. A single
// element is aggregated as a collection of one. Tuple elements are
// aggregated field by field, as the store aggregates each selected column;
// for set data each field only contributes its distinct values.
func aggregateData(f aggregate.Func, data any) (any, error) {
	r, ok := collection(data)
	if !ok {
		r = result.FromSlice([]any{data}, result.List)
	}
	defer r.Close()

	head, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if len(head) == 0 {
		return f.Apply(r)
	}
	if _, ok := head[0].(value.Tuple); !ok {
		return f.Apply(r)
	}

	var columns [][]any
	n := 0
	for r.Next() {
		fields := spread(r.Value())
		for len(columns) < len(fields) {
			columns = append(columns, make([]any, n))
		}
		for i := range columns {
			var v any
			if i < len(fields) {
				v = fields[i]
			}
			columns[i] = append(columns[i], v)
		}
		n++
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	out := make(value.Tuple, len(columns))
	for i, col := range columns {
		var it aggregate.Iterator = result.FromSlice(col, result.List)
		if r.EvalType() == result.Set {
			it = aggregate.DistinctOf(it)
		}
		if out[i], err = f.Apply(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func distinctData(data any) (any, error) {
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return v, nil
		}
		return result.New(aggregate.DistinctOf(r), r.EvalType(), r.Close), nil
	}, data)
}

func flattenData(data any) (any, error) {
	groups, ok := items(data)
	if !ok {
		return data, nil
	}

	var (
		key   []any
		inner *result.Result
	)
	row := func(v any) value.Tuple {
		out := make(value.Tuple, 0, len(key)+1)
		out = append(out, key...)
		return append(out, spread(v)...)
	}
	next := func() (any, bool, error) {
		for {
			if inner != nil {
				if inner.Next() {
					return row(inner.Value()), true, nil
				}
				if err := inner.Err(); err != nil {
					return nil, false, err
				}
				inner = nil
			}

			item, ok, err := nextItem(groups)
			if !ok {
				return nil, false, err
			}
			key = spread(item.Key)
			if r, ok := collection(item.Value); ok {
				inner = r
				continue
			}
			return row(item.Value), true, nil
		}
	}
	closeFn := func() error {
		if inner != nil {
			_ = inner.Close()
		}
		return groups.Close()
	}
	return result.New(result.Func(next), result.List, closeFn), nil
}

func unwrapData(data any) (any, error) {
	return applyToData(func(v any) (any, error) {
		r, ok := collection(v)
		if !ok {
			return v, nil
		}
		head, err := r.Peek(2)
		if err != nil {
			return nil, err
		}
		if len(head) == 1 {
			_ = r.Close()
			return head[0], nil
		}
		return r, nil
	}, data)
}
