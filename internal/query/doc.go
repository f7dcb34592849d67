// Package query builds immutable chains of transformations over a
// selection and runs them.
//
// A Query starts from a selection (columns plus keyword filters) or from a
// plain Go value, and each chain method returns a new Query with one more
// step. Executing a Query translates its steps into an execution Plan: a
// list of function calls threaded through an evolving value (the Token).
// Before running, the plan is passed through the optimizer, which pushes
// aggregates and distinct filtering down into the data source when the
// plan starts with a selection.
//
// Running a plan either yields a scalar or a lazy *result.Result.
//
//	q, err := query.NewFrom(ctx, sel, map[string]any{"label1": "value"}, nil)
//	...
//	totals, err := q.Sum().Fetch(ctx)
package query
