package selector

import (
	"fmt"

	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/store"
	"github.com/roach88/squint/internal/value"
)

// scanRow scans the current row into plain values.
func scanRow(rows *store.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return values, nil
}

// shape builds one element from its field values.
func shape(elem selection.Elem, vals []any) any {
	if elem.Tuple {
		return value.Tuple(append([]any(nil), vals...))
	}
	return vals[0]
}

// cursor reads rows one at a time and remembers the first error.
type cursor struct {
	rows *store.Rows
	eof  bool
	err  error
}

func (c *cursor) next() ([]any, bool) {
	if c.eof || c.err != nil {
		return nil, false
	}
	if !c.rows.Next() {
		c.eof = true
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("rows iteration: %w", err)
		}
		return nil, false
	}
	row, err := scanRow(c.rows)
	if err != nil {
		c.err = err
		return nil, false
	}
	return row, true
}

// rowIterator yields one element per row.
type rowIterator struct {
	cursor
	elem selection.Elem
	cur  any
}

func newRowIterator(rows *store.Rows, elem selection.Elem) *rowIterator {
	return &rowIterator{cursor: cursor{rows: rows}, elem: elem}
}

func (it *rowIterator) Next() bool {
	row, ok := it.next()
	if !ok {
		return false
	}
	it.cur = shape(it.elem, row)
	return true
}

func (it *rowIterator) Value() any { return it.cur }

func (it *rowIterator) Err() error { return it.err }

// groupIterator groups rows ordered by key into value.Items. Each group is
// buffered in full, so the items may be consumed independently.
type groupIterator struct {
	cursor
	key     selection.Elem
	elem    selection.Elem
	eval    result.EvalType
	pending []any
	cur     value.Item
}

func newGroupIterator(rows *store.Rows, key, elem selection.Elem, eval result.EvalType) *groupIterator {
	return &groupIterator{cursor: cursor{rows: rows}, key: key, elem: elem, eval: eval}
}

func (it *groupIterator) Next() bool {
	head := it.pending
	it.pending = nil
	if head == nil {
		var ok bool
		if head, ok = it.next(); !ok {
			return false
		}
	}

	nkey := len(it.key.Names)
	k := shape(it.key, head[:nkey])
	groupKey := value.Key(k)
	vals := []any{shape(it.elem, head[nkey:])}

	for {
		row, ok := it.next()
		if !ok {
			if it.err != nil {
				return false
			}
			break
		}
		if value.Key(shape(it.key, row[:nkey])) != groupKey {
			it.pending = row
			break
		}
		vals = append(vals, shape(it.elem, row[nkey:]))
	}

	it.cur = value.Item{Key: k, Value: result.FromSlice(vals, it.eval)}
	return true
}

func (it *groupIterator) Value() any { return it.cur }

func (it *groupIterator) Err() error { return it.err }

// aggregateIterator yields one key/aggregate item per grouped row.
type aggregateIterator struct {
	cursor
	key  selection.Elem
	elem selection.Elem
	cur  value.Item
}

func newAggregateIterator(rows *store.Rows, key, elem selection.Elem) *aggregateIterator {
	return &aggregateIterator{cursor: cursor{rows: rows}, key: key, elem: elem}
}

func (it *aggregateIterator) Next() bool {
	row, ok := it.next()
	if !ok {
		return false
	}
	nkey := len(it.key.Names)
	it.cur = value.Item{Key: shape(it.key, row[:nkey]), Value: shape(it.elem, row[nkey:])}
	return true
}

func (it *aggregateIterator) Value() any { return it.cur }

func (it *aggregateIterator) Err() error { return it.err }
