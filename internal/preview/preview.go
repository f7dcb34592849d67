// Package preview renders the first rows of a query result as a markdown
// table without consuming the result.
package preview

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/value"
)

// Formatter renders previews.
type Formatter struct {
	// MaxLines is the number of table rows shown, the ellipsis row
	// included.
	MaxLines int
	// MaxNested is the number of elements shown for a nested group.
	MaxNested int
	// Ellipsis marks omitted rows and elements.
	Ellipsis string
}

// NewFormatter returns a Formatter with the default limits.
func NewFormatter() *Formatter {
	return &Formatter{
		MaxLines:  8,
		MaxNested: 5,
		Ellipsis:  "...",
	}
}

// Render previews v, a *result.Result or a scalar. Results are only
// peeked at: their elements are still available to the caller afterwards.
// header names the columns; when its width does not match the rows,
// numbered columns are used instead.
func (f *Formatter) Render(v any, header []string) (string, error) {
	rows, more, err := f.rows(v)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(color.CyanString("---- preview ----"))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("_No rows_\n")
		return b.String(), nil
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if len(header) != width {
		header = make([]string, width)
		for i := range header {
			header[i] = fmt.Sprintf("#%d", i+1)
		}
	}
	if more {
		ellipsis := make([]string, width)
		ellipsis[0] = f.Ellipsis
		rows = append(rows, ellipsis)
	}

	alignment := make([]tw.Align, width)
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(header)
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		table.Append(padded)
	}
	table.Render()
	return b.String(), nil
}

// rows returns up to MaxLines-1 formatted rows of v and whether more
// follow.
func (f *Formatter) rows(v any) ([][]string, bool, error) {
	r, ok := v.(*result.Result)
	if !ok {
		return [][]string{f.cells(v)}, false, nil
	}

	limit := max(f.MaxLines-1, 1)
	head, err := r.Peek(limit + 1)
	if err != nil {
		return nil, false, err
	}
	more := len(head) > limit
	if more {
		head = head[:limit]
	}

	rows := make([][]string, 0, len(head))
	for _, x := range head {
		if item, ok := x.(value.Item); ok && r.EvalType() == result.Map {
			nested, err := f.cell(item.Value)
			if err != nil {
				return nil, false, err
			}
			rows = append(rows, append(f.cells(item.Key), nested))
			continue
		}
		rows = append(rows, f.cells(x))
	}
	return rows, more, nil
}

// cells splits a tuple element into one cell per field.
func (f *Formatter) cells(v any) []string {
	t, ok := v.(value.Tuple)
	if !ok {
		return []string{value.Format(v)}
	}
	out := make([]string, len(t))
	for i, x := range t {
		out[i] = value.Format(x)
	}
	return out
}

// cell renders a group value, peeking into nested results.
func (f *Formatter) cell(v any) (string, error) {
	r, ok := v.(*result.Result)
	if !ok {
		return value.Repr(v), nil
	}
	head, err := r.Peek(f.MaxNested + 1)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(head))
	for i, x := range head {
		if i == f.MaxNested {
			parts = append(parts, f.Ellipsis)
			break
		}
		parts = append(parts, value.Repr(x))
	}
	open, closing := "[", "]"
	if r.EvalType() == result.Set {
		open, closing = "{", "}"
	}
	return open + strings.Join(parts, ", ") + closing, nil
}
