package queryir

import (
	"github.com/roach88/squint/internal/aggregate"
	"github.com/roach88/squint/internal/predicate"
)

// Query represents an abstract statement in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Select: table access with filtering, grouping and ordering
//   - CreateIndex: index creation over one or more fields
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Column represents one output column of a Select.
//
// This is a sealed interface - only types in this package implement it.
type Column interface {
	columnNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - In: field IN (literal, ...)
//   - Match: a registered function applied to the field is true
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select represents a table access query.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from>
//	[WHERE <filter>] [GROUP BY <group_by>] [ORDER BY <order_by>]
//
// Example:
//
//	Select{
//	  From:    "tbl_1",
//	  Columns: []Column{Field{Name: "A"}, Aggregate{Func: aggregate.Sum, Field: "C"}},
//	  Filter:  Equals{Field: "B", Value: "x"},
//	  GroupBy: []string{"A"},
//	  OrderBy: []string{"A"},
//	}
//
// Translates to SQL:
//
//	SELECT "A", CAST(SUM("C") AS REAL) FROM "tbl_1" WHERE "B" = ? GROUP BY "A" ORDER BY "A"
type Select struct {
	From     string    // Table name
	Distinct bool      // SELECT DISTINCT
	Columns  []Column  // Output columns, in order
	Filter   Predicate // WHERE conditions (nil = no filter)
	GroupBy  []string  // GROUP BY fields (nil = no grouping)
	OrderBy  []string  // ORDER BY fields (nil = storage order)
}

func (Select) queryNode() {}

// CreateIndex represents an idempotent index creation.
//
// Semantics:
//
//	CREATE INDEX IF NOT EXISTS <name> ON <table> (<fields>)
type CreateIndex struct {
	Table  string
	Fields []string
}

func (CreateIndex) queryNode() {}

// Field selects a column as is.
type Field struct {
	Name string
}

func (Field) columnNode() {}

// Aggregate selects an aggregate over a column. With Distinct set the
// aggregate only sees distinct values.
type Aggregate struct {
	Func     aggregate.Func
	Field    string
	Distinct bool
}

func (Aggregate) columnNode() {}

// Equals represents a field-equals-literal predicate.
//
// Semantics:
//
//	<field> = ?
//
// NULL never equals anything, so Equals{Value: nil} matches no rows.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// In represents set membership.
//
// Semantics:
//
//	<field> IN (?, ?, ...)
//
// An empty Values slice matches no rows.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// Match represents a matcher applied to the field through a registered
// SQL function.
//
// Semantics:
//
//	<function>(<field>)
type Match struct {
	Field   string
	Matcher predicate.Matcher
}

func (Match) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
