// Package squint is an embeddable query layer over tabular record sets.
//
// Data is loaded into a Select, which owns a table in a SQLite-backed
// Store. Queries describe a selection of columns, optional filters and a
// chain of transformations:
//
//	sel, _ := squint.NewSelect()
//	defer sel.Close()
//	_ = sel.LoadCSV(ctx, "sales.csv")
//
//	q, _ := squint.NewFrom(ctx, sel, map[string]any{"region": "amount"}, nil)
//	totals, _ := q.Sum().Fetch(ctx)
//
// Aggregations and distinct selections run inside SQLite when the plan
// allows it; everything else runs through a lazy in-process pipeline with
// the same semantics.
package squint

import (
	"context"

	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/selector"
	"github.com/roach88/squint/internal/store"
	"github.com/roach88/squint/internal/value"
)

type (
	// Query is an immutable chain of query steps.
	Query = query.Query
	// Where holds filter keywords: field name to condition.
	Where = query.Where
	// Source is a data source queries can run against.
	Source = query.Source
	// ExecuteOption configures Execute and Fetch.
	ExecuteOption = query.ExecuteOption

	// Select is a table of loaded records on a Store.
	Select = selector.Select
	// Store is a reference-counted SQLite database handle.
	Store = store.Store
	// Result is the lazy iterator returned by Execute.
	Result = result.Result

	// Tuple, Set, Map and Item are the values queries produce.
	Tuple = value.Tuple
	Set   = value.Set
	Map   = value.Map
	Item  = value.Item

	// Selection mini-language containers.
	FieldTuple = selection.Tuple
	List       = selection.List
	SetOf      = selection.SetOf
	Dict       = selection.Dict
	Entry      = selection.Entry
)

// New returns an unbound query; supply a source at execution with
// WithSource.
func New(columns any, where Where) (*Query, error) { return query.New(columns, where) }

// NewFrom returns a query bound to src. Every selected and filtered field
// must exist in src.
func NewFrom(ctx context.Context, src Source, columns any, where Where) (*Query, error) {
	return query.NewFrom(ctx, src, columns, where)
}

// FromObject returns a query over an in-memory value.
func FromObject(obj any) *Query { return query.FromObject(obj) }

// WithSource binds the source a query runs against.
func WithSource(src any) ExecuteOption { return query.WithSource(src) }

// WithoutOptimization runs the plan as written.
func WithoutOptimization() ExecuteOption { return query.WithoutOptimization() }

// NewSelect returns a Select on the shared default store.
func NewSelect() (*Select, error) { return selector.NewDefault() }

// NewSelectOn returns a Select on st.
func NewSelectOn(st *Store) (*Select, error) { return selector.New(st) }

// OpenStore opens or creates a SQLite database at path.
func OpenStore(path string) (*Store, error) { return store.Open(path) }

// Fetch materializes v when it is a Result.
func Fetch(v any) (any, error) { return result.Materialize(v) }
