package query

import (
	"context"
	"log/slog"

	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/result"
)

type executeOptions struct {
	source    any
	hasSource bool
	optimize  bool
}

// ExecuteOption configures Execute and Fetch.
type ExecuteOption func(*executeOptions)

// WithSource runs an unbound query against src, which must be a Source.
func WithSource(src any) ExecuteOption {
	return func(o *executeOptions) {
		o.source = src
		o.hasSource = true
	}
}

// WithoutOptimization runs the plan as translated.
func WithoutOptimization() ExecuteOption {
	return func(o *executeOptions) {
		o.optimize = false
	}
}

// Execute runs the query. The value is either a scalar or a lazy
// *result.Result the caller must drain or close.
func (q *Query) Execute(ctx context.Context, opts ...ExecuteOption) (any, error) {
	o := executeOptions{optimize: true}
	for _, opt := range opts {
		opt(&o)
	}

	source, err := q.resolveSource(o)
	if err != nil {
		return nil, err
	}
	_, selectable := source.(Source)
	plan, err := q.executionPlan(selectable)
	if err != nil {
		return nil, err
	}
	if o.optimize {
		plan, _ = Optimize(plan)
	}
	return plan.Run(ctx, source)
}

// Fetch runs the query and materialises a Result into a []any,
// value.Set or *value.Map. Scalars are returned as they are.
func (q *Query) Fetch(ctx context.Context, opts ...ExecuteOption) (any, error) {
	v, err := q.Execute(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return result.Materialize(v)
}

func (q *Query) resolveSource(o executeOptions) (any, error) {
	if o.hasSource {
		if q.source != nil || q.fromObject {
			return nil, qerr.Type("cannot take a source, query is already associated with a data source: %s", q.sourceString())
		}
		src, ok := o.source.(Source)
		if !ok || src == nil {
			return nil, qerr.Type("expected a Source, got %T", o.source)
		}
		return src, nil
	}
	switch {
	case q.source != nil:
		return q.source, nil
	case q.fromObject:
		return q.object, nil
	}
	return nil, qerr.Type("missing source, none found")
}

// Run interprets the plan, threading the evolving value from src through
// every step.
func (p Plan) Run(ctx context.Context, src any) (any, error) {
	cur := src
	for i, step := range p {
		fn, ok := substitute(step.Function, cur).(Callable)
		if !ok {
			closeValue(cur)
			return nil, qerr.Type("plan step %d is not callable: %s", i, reprArg(step.Function))
		}
		args := make([]any, len(step.Args))
		for j, a := range step.Args {
			args[j] = substitute(a, cur)
		}
		var kwds map[string]any
		if step.Kwds != nil {
			kwds = make(map[string]any, len(step.Kwds))
			for k, v := range step.Kwds {
				kwds[k] = substitute(v, cur)
			}
		}

		slog.Debug("execute step", "step", i, "function", reprArg(step.Function))
		next, err := fn.Call(ctx, args, kwds)
		if err != nil {
			closeValue(cur)
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func substitute(v, cur any) any {
	if v == Token {
		return cur
	}
	return v
}

func closeValue(v any) {
	if r, ok := v.(*result.Result); ok {
		_ = r.Close()
	}
}
