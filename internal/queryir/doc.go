// Package queryir provides the abstract query representation used between
// the store adapter and the SQL compiler.
//
// ARCHITECTURE:
//
//	[selection + where keywords] → [Query IR] → [SQL text + params]
//
// The adapter describes what it wants (columns, filter, grouping, order)
// as Query IR values and never builds SQL strings itself. The compiler in
// package querysql owns quoting and parameter binding.
//
// SEALED INTERFACES:
//
// Query, Column and Predicate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which keeps type
// switches in the compiler exhaustive.
//
// Filter keywords map to predicates deterministically: fields are visited
// in sorted order, so equal where-maps always compile to the same SQL.
package queryir
