// Package selector adapts a table in a store to the selection interface
// used by queries.
//
// A Select owns one table. Selections are compiled to SQL through the
// queryir/querysql pair and their rows are shaped into lazy Results:
// non-grouped selections yield values (or tuples), grouped selections yield
// key/value items whose values are Results of their own.
package selector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/squint/internal/load"
	"github.com/roach88/squint/internal/predicate"
	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/queryir"
	"github.com/roach88/squint/internal/querysql"
	"github.com/roach88/squint/internal/store"
)

// Select is a handle on one table of a store.
type Select struct {
	store   *store.Store
	table   string
	sources []string
	funcs   map[predicate.Matcher]string
}

// New returns a Select on a fresh table of st. The Select holds its own
// reference to st, released by Close.
func New(st *store.Store) (*Select, error) {
	if st.Retain() == nil {
		return nil, fmt.Errorf("new select: store is closed")
	}
	return newSelect(st, store.NewTableName()), nil
}

// NewDefault returns a Select on a fresh table of the shared default store.
func NewDefault() (*Select, error) {
	st, err := store.Default()
	if err != nil {
		return nil, fmt.Errorf("new select: %w", err)
	}
	return newSelect(st, store.NewTableName()), nil
}

func newSelect(st *store.Store, table string) *Select {
	return &Select{
		store: st,
		table: table,
		funcs: make(map[predicate.Matcher]string),
	}
}

// Close releases the Select's matcher functions and its reference to its
// store.
func (s *Select) Close() error {
	for m, name := range s.funcs {
		s.store.ReleaseMatcher(name)
		delete(s.funcs, m)
	}
	return s.store.Close()
}

// Table returns the name of the backing table.
func (s *Select) Table() string { return s.table }

// Store returns the backing store.
func (s *Select) Store() *store.Store { return s.store }

// Load adds rows to the table. name describes where the rows came from.
func (s *Select) Load(ctx context.Context, name string, header []string, rows [][]any) error {
	if err := s.store.LoadRows(ctx, s.table, header, rows); err != nil {
		return err
	}
	s.sources = append(s.sources, sourceString(name))
	return nil
}

// LoadCSV adds the records of a CSV file.
func (s *Select) LoadCSV(ctx context.Context, path string) error {
	header, rows, err := load.CSVFile(path)
	if err != nil {
		return err
	}
	return s.Load(ctx, strconv.Quote(path), header, rows)
}

// LoadReader adds the CSV records read from r.
func (s *Select) LoadReader(ctx context.Context, name string, r io.Reader) error {
	header, rows, err := load.CSV(r)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return s.Load(ctx, name, header, rows)
}

// sourceString normalizes whitespace and truncates long descriptions.
func sourceString(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > 63 {
		name = name[:52] + "..." + name[len(name)-8:]
	}
	return name
}

// String describes the Select and the sources loaded into it.
func (s *Select) String() string {
	switch len(s.sources) {
	case 0:
		return "<Select (no data loaded)>"
	case 1:
		return "<Select " + s.sources[0] + ">"
	}
	sorted := append([]string(nil), s.sources...)
	sort.Strings(sorted)
	return fmt.Sprintf("<Select (%d sources):\n    %s>", len(sorted), strings.Join(sorted, "\n    "))
}

// Fieldnames returns the column names of the table in table order.
func (s *Select) Fieldnames(ctx context.Context) ([]string, error) {
	return s.store.Columns(ctx, s.table)
}

// AssertFieldsExist returns a lookup error naming every field of names
// that the table lacks.
func (s *Select) AssertFieldsExist(ctx context.Context, names []string) error {
	available, err := s.Fieldnames(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(available))
	for _, n := range available {
		have[n] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, n := range names {
		if !have[n] && !seen[n] {
			missing = append(missing, n)
			seen[n] = true
		}
	}
	if len(missing) > 0 {
		return qerr.Lookup(missing, s.String())
	}
	return nil
}

// CreateIndex creates an index over fields unless it already exists.
func (s *Select) CreateIndex(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return qerr.Validation("create index: no fields given")
	}
	if err := s.AssertFieldsExist(ctx, fields); err != nil {
		return err
	}
	stmt, params, err := querysql.NewSQLCompiler(nil).Compile(queryir.CreateIndex{Table: s.table, Fields: fields})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	slog.Debug("create index", "sql", stmt)
	if _, err := s.store.Exec(ctx, stmt, params...); err != nil {
		return statementError(stmt, params, err)
	}
	return nil
}

// functionName returns the SQL function registered for m. Comparable
// matchers are registered once per Select and kept until Close; any other
// matcher gets a function of its own, added to transient so the caller can
// release it once the statement is done.
func (s *Select) functionName(m predicate.Matcher, transient *[]string) string {
	if !reflect.TypeOf(m).Comparable() {
		name := s.store.RegisterMatcher(m)
		*transient = append(*transient, name)
		return name
	}
	if name, ok := s.funcs[m]; ok {
		return name
	}
	name := s.store.RegisterMatcher(m)
	s.funcs[m] = name
	return name
}

// run compiles and executes q. The returned close function closes the
// rows and releases the functions registered for this statement alone.
func (s *Select) run(ctx context.Context, q queryir.Query) (*store.Rows, func() error, error) {
	var transient []string
	release := func() {
		for _, name := range transient {
			s.store.ReleaseMatcher(name)
		}
	}

	compiler := querysql.NewSQLCompiler(func(m predicate.Matcher) (string, error) {
		return s.functionName(m, &transient), nil
	})
	stmt, params, err := compiler.Compile(q)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("compile select: %w", err)
	}
	slog.Debug("select", "sql", stmt, "params", params)

	rows, err := s.store.Query(ctx, stmt, params...)
	if err != nil {
		release()
		return nil, nil, statementError(stmt, params, err)
	}
	closeFn := func() error {
		defer release()
		return rows.Close()
	}
	return rows, closeFn, nil
}

func statementError(stmt string, params []any, err error) error {
	return fmt.Errorf("%w\n  statement: %s\n  params: %v", err, stmt, params)
}
