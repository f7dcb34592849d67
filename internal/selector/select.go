package selector

import (
	"context"

	"github.com/roach88/squint/internal/aggregate"
	"github.com/roach88/squint/internal/queryir"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
)

// Select returns the rows of columns matching where.
//
// Non-grouped selections yield one value (or value.Tuple) per row. Set
// selections are deduplicated by the database. Grouped selections are
// ordered by their key fields and yield one value.Item per distinct key.
func (s *Select) Select(ctx context.Context, columns any, where queryir.Where) (*result.Result, error) {
	return s.selectRows(ctx, columns, where, false)
}

// SelectDistinct is like Select but deduplicates rows (within each group
// for grouped selections).
func (s *Select) SelectDistinct(ctx context.Context, columns any, where queryir.Where) (*result.Result, error) {
	return s.selectRows(ctx, columns, where, true)
}

func (s *Select) selectRows(ctx context.Context, columns any, where queryir.Where, distinct bool) (*result.Result, error) {
	spec, err := s.prepare(ctx, columns, where)
	if err != nil {
		return nil, err
	}
	key, value := selection.Split(spec)
	elem := selection.ElemOf(value)

	q := queryir.Select{
		From:     s.table,
		Distinct: distinct || selection.IsSet(spec),
		Columns:  fieldColumns(key.Names, elem.Names),
		Filter:   queryir.FromWhere(where),
		OrderBy:  key.Names,
	}
	rows, closeRows, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}

	eval := evalType(value)
	if len(key.Names) == 0 {
		return result.New(newRowIterator(rows, elem), eval, closeRows), nil
	}
	return result.New(newGroupIterator(rows, key, elem, eval), result.Map, closeRows), nil
}

// SelectAggregate applies the SQL aggregate fn (SUM, COUNT, AVG, MIN or
// MAX) to the value fields of columns.
//
// Without a key the aggregate value is returned directly: a scalar, or a
// value.Tuple for tuple selections. With a key the result is a Map Result
// of key/aggregate items. Set selections aggregate distinct values only.
func (s *Select) SelectAggregate(ctx context.Context, fn string, columns any, where queryir.Where) (any, error) {
	f, err := aggregate.Parse(fn)
	if err != nil {
		return nil, err
	}
	spec, err := s.prepare(ctx, columns, where)
	if err != nil {
		return nil, err
	}
	key, value := selection.Split(spec)
	elem := selection.ElemOf(value)
	distinct := selection.IsSet(spec)

	cols := fieldColumns(key.Names, nil)
	for _, name := range elem.Names {
		cols = append(cols, queryir.Aggregate{Func: f, Field: name, Distinct: distinct})
	}
	q := queryir.Select{
		From:    s.table,
		Columns: cols,
		Filter:  queryir.FromWhere(where),
		GroupBy: key.Names,
		OrderBy: key.Names,
	}
	rows, closeRows, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(key.Names) > 0 {
		return result.New(newAggregateIterator(rows, key, elem), result.Map, closeRows), nil
	}

	defer closeRows()
	it := newRowIterator(rows, elem)
	if !it.Next() {
		return nil, it.Err()
	}
	return it.Value(), nil
}

// prepare normalizes columns and checks that every selected and filtered
// field exists.
func (s *Select) prepare(ctx context.Context, columns any, where queryir.Where) (selection.Spec, error) {
	spec, err := selection.Normalize(columns)
	if err != nil {
		return nil, err
	}
	names := append(selection.Columns(spec), where.Fields()...)
	if err := s.AssertFieldsExist(ctx, names); err != nil {
		return nil, err
	}
	return spec, nil
}

func fieldColumns(key, value []string) []queryir.Column {
	cols := make([]queryir.Column, 0, len(key)+len(value))
	for _, name := range key {
		cols = append(cols, queryir.Field{Name: name})
	}
	for _, name := range value {
		cols = append(cols, queryir.Field{Name: name})
	}
	return cols
}

func evalType(value selection.Spec) result.EvalType {
	if _, ok := value.(selection.Set); ok {
		return result.Set
	}
	return result.List
}
