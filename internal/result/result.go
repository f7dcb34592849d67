// Package result provides the lazy iterator returned by query execution.
//
// A Result pulls values from an underlying Iterator on demand. It knows the
// type it materialises into (its EvalType) and owns a close callback that
// releases the resources behind it, typically a database cursor. The
// callback fires exactly once: when the data runs out, when Close is
// called, or when an abandoned Result is reclaimed by the garbage
// collector.
//
// Map results iterate over value.Item pairs whose values may themselves be
// Results (the groups of a grouped selection).
package result

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/eapache/queue"

	"github.com/roach88/squint/internal/value"
)

// MaxLookahead bounds the number of elements Peek may buffer.
const MaxLookahead = 64

// EvalType is the type a Result materialises into.
type EvalType int

const (
	List EvalType = iota
	Set
	Map
)

func (e EvalType) String() string {
	switch e {
	case Set:
		return "set"
	case Map:
		return "map"
	default:
		return "list"
	}
}

// Iterator is the pull protocol shared by Results and their sources.
type Iterator interface {
	Next() bool
	Value() any
	Err() error
}

// Result is a lazy, single-owner iterator.
type Result struct {
	src       Iterator
	eval      EvalType
	lookahead *queue.Queue
	cur       any
	err       error
	exhausted bool
	closer    *closer
}

// closer holds the close callback apart from the Result so the cleanup
// registered on the Result can run it without keeping the Result alive.
type closer struct {
	once sync.Once
	fn   func() error
	err  error
}

func (c *closer) close() error {
	c.once.Do(func() {
		if c.fn != nil {
			c.err = c.fn()
		}
	})
	return c.err
}

// New wraps it. closeFn may be nil.
func New(it Iterator, eval EvalType, closeFn func() error) *Result {
	r := &Result{
		src:       it,
		eval:      eval,
		lookahead: queue.New(),
		closer:    &closer{fn: closeFn},
	}
	if closeFn != nil {
		runtime.AddCleanup(r, func(c *closer) { _ = c.close() }, r.closer)
	}
	return r
}

// FromSlice returns a Result over vals.
func FromSlice(vals []any, eval EvalType) *Result {
	return New(&sliceIterator{vals: vals, pos: -1}, eval, nil)
}

// FromItems returns a Map Result over items.
func FromItems(items []value.Item) *Result {
	vals := make([]any, len(items))
	for i, it := range items {
		vals[i] = it
	}
	return FromSlice(vals, Map)
}

// FromMap returns a Map Result over the entries of m.
func FromMap(m *value.Map) *Result {
	return FromItems(m.Items())
}

// EvalType returns the type the Result materialises into.
func (r *Result) EvalType() EvalType { return r.eval }

// Next advances to the next value. It returns false when the data is
// exhausted (the close callback has then fired) or an error occurred.
func (r *Result) Next() bool {
	if r.lookahead.Length() > 0 {
		r.cur = r.lookahead.Remove()
		return true
	}
	if r.pull() {
		r.cur = r.src.Value()
		return true
	}
	r.cur = nil
	if r.err == nil {
		r.err = r.closer.close()
	}
	return false
}

// pull advances the source, recording exhaustion and errors. The source is
// never advanced again once it has reported its end.
func (r *Result) pull() bool {
	if r.exhausted || r.err != nil {
		return false
	}
	if r.src.Next() {
		return true
	}
	r.exhausted = true
	r.err = r.src.Err()
	return false
}

// Value returns the current value.
func (r *Result) Value() any { return r.cur }

// Err returns the first error met while iterating.
func (r *Result) Err() error { return r.err }

// Close releases the resources behind the Result. It is safe to call more
// than once.
func (r *Result) Close() error {
	r.exhausted = true
	r.cur = nil
	for r.lookahead.Length() > 0 {
		r.lookahead.Remove()
	}
	return r.closer.close()
}

// Peek returns up to n upcoming values without consuming them. n is capped
// at MaxLookahead. Fewer values are returned when the data runs out.
func (r *Result) Peek(n int) ([]any, error) {
	n = max(0, min(n, MaxLookahead))
	for r.lookahead.Length() < n && r.pull() {
		r.lookahead.Add(r.src.Value())
	}
	if r.err != nil {
		return nil, r.err
	}
	n = min(n, r.lookahead.Length())
	out := make([]any, n)
	for i := range out {
		out[i] = r.lookahead.Get(i)
	}
	return out, nil
}

// Fetch drains the Result and materialises it: []any for List, value.Set
// for Set and *value.Map for Map. Nested Results are fetched too.
func (r *Result) Fetch() (any, error) {
	switch r.eval {
	case Set:
		var vals []any
		for r.Next() {
			vals = append(vals, r.Value())
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return value.NewSet(vals...), nil

	case Map:
		m := value.NewMap()
		for r.Next() {
			item, ok := r.Value().(value.Item)
			if !ok {
				return nil, fmt.Errorf("map result yielded %T, want value.Item", r.Value())
			}
			v, err := Materialize(item.Value)
			if err != nil {
				return nil, err
			}
			m.Set(item.Key, v)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return m, nil

	default:
		vals := []any{}
		for r.Next() {
			vals = append(vals, r.Value())
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return vals, nil
	}
}

// Materialize fetches v when it is a Result and returns it unchanged
// otherwise.
func Materialize(v any) (any, error) {
	if r, ok := v.(*Result); ok {
		return r.Fetch()
	}
	return v, nil
}

// String describes the Result without consuming it.
func (r *Result) String() string {
	return fmt.Sprintf("<Result (evaltype=%s)>", r.eval)
}

type sliceIterator struct {
	vals []any
	pos  int
}

func (s *sliceIterator) Next() bool {
	if s.pos+1 >= len(s.vals) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceIterator) Value() any { return s.vals[s.pos] }

func (s *sliceIterator) Err() error { return nil }

// Func adapts a generator function to Iterator. next returns the next value
// and true, or false at the end.
func Func(next func() (any, bool, error)) Iterator {
	return &funcIterator{next: next}
}

type funcIterator struct {
	next func() (any, bool, error)
	cur  any
	err  error
	done bool
}

func (f *funcIterator) Next() bool {
	if f.done {
		return false
	}
	v, ok, err := f.next()
	if err != nil {
		f.err = err
		f.done = true
		return false
	}
	if !ok {
		f.done = true
		return false
	}
	f.cur = v
	return true
}

func (f *funcIterator) Value() any { return f.cur }

func (f *funcIterator) Err() error { return f.err }
