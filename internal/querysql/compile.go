package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/squint/internal/predicate"
	"github.com/roach88/squint/internal/queryir"
)

// FunctionResolver returns the name of the SQL function registered for m.
type FunctionResolver func(m predicate.Matcher) (string, error)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: All identifiers are quoted with QuoteIdent.
type SQLCompiler struct {
	// Functions resolves Match predicates. Compiling a Match without a
	// resolver is an error.
	Functions FunctionResolver
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(functions FunctionResolver) *SQLCompiler {
	return &SQLCompiler{Functions: functions}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.CreateIndex:
		return c.compileCreateIndex(query)
	case *queryir.CreateIndex:
		return c.compileCreateIndex(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select without table")
	}
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select without columns")
	}

	selectClause, err := c.compileColumns(q.Columns)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(selectClause)
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(q.From))

	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(filterSQL)
		params = filterParams
	}

	if len(q.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(quoteList(q.GroupBy))
	}
	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(quoteList(q.OrderBy))
	}

	return sb.String(), params, nil
}

// compileColumns converts the output columns to a SELECT list.
func (c *SQLCompiler) compileColumns(cols []queryir.Column) (string, error) {
	parts := make([]string, len(cols))
	for i, col := range cols {
		switch x := col.(type) {
		case queryir.Field:
			parts[i] = QuoteIdent(x.Name)
		case queryir.Aggregate:
			parts[i] = x.Func.SQLExpr(QuoteIdent(x.Field), x.Distinct)
		default:
			return "", fmt.Errorf("unsupported column type: %T", col)
		}
	}
	return strings.Join(parts, ", "), nil
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return QuoteIdent(pred.Field) + " = ?", []any{pred.Value}, nil
	case queryir.In:
		return c.compileIn(pred)
	case queryir.Match:
		return c.compileMatch(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileIn compiles membership to "field IN (?, ...)".
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
	params := append([]any(nil), in.Values...)
	return fmt.Sprintf("%s IN (%s)", QuoteIdent(in.Field), placeholders), params, nil
}

// compileMatch compiles a matcher to a call of its registered function.
func (c *SQLCompiler) compileMatch(m queryir.Match) (string, []any, error) {
	if c.Functions == nil {
		return "", nil, fmt.Errorf("no function resolver for matcher on %q", m.Field)
	}
	name, err := c.Functions(m.Matcher)
	if err != nil {
		return "", nil, fmt.Errorf("register matcher on %q: %w", m.Field, err)
	}
	return fmt.Sprintf("%s(%s)", name, QuoteIdent(m.Field)), nil, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileCreateIndex compiles an idempotent index creation.
func (c *SQLCompiler) compileCreateIndex(ci queryir.CreateIndex) (string, []any, error) {
	if len(ci.Fields) == 0 {
		return "", nil, fmt.Errorf("index without fields")
	}
	sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		QuoteIdent(IndexName(ci.Table, ci.Fields)),
		QuoteIdent(ci.Table),
		quoteList(ci.Fields))
	return sql, nil, nil
}

// IndexName returns "idx_<table>_<field>_<field>..." with every
// non-alphanumeric character removed from the field names.
func IndexName(table string, fields []string) string {
	parts := make([]string, 0, len(fields)+2)
	parts = append(parts, "idx", table)
	for _, f := range fields {
		parts = append(parts, strings.Map(keepAlnum, f))
	}
	return strings.Join(parts, "_")
}

func keepAlnum(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		return r
	}
	return -1
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
