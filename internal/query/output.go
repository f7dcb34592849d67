package query

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/value"
)

// Rows runs the flattened query and returns its records. When fieldnames
// is empty the header is taken from the selected columns, provided their
// number matches the width of the records; otherwise header is nil.
func (q *Query) Rows(ctx context.Context, fieldnames []string, opts ...ExecuteOption) (header []string, rows [][]any, err error) {
	v, err := q.Flatten().Execute(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	r, ok := collection(v)
	if !ok {
		rows = [][]any{spread(v)}
	} else {
		defer r.Close()
		for r.Next() {
			rows = append(rows, spread(r.Value()))
		}
		if err := r.Err(); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case len(fieldnames) > 0:
		header = fieldnames
	case q.spec != nil:
		header = selection.Columns(q.spec)
		if len(rows) > 0 && len(rows[0]) != len(header) {
			header = nil
		}
	}
	return header, rows, nil
}

// WriteCSV writes the records of Rows to w, preceded by the header when
// there is one. NULL is written as an empty field.
func (q *Query) WriteCSV(ctx context.Context, w io.Writer, fieldnames []string, opts ...ExecuteOption) error {
	header, rows, err := q.Rows(ctx, fieldnames, opts...)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if header != nil {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	record := make([]string, 0, 8)
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, value.Format(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
