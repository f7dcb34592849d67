package query

import (
	"context"

	"github.com/roach88/squint/internal/aggregate"
	"github.com/roach88/squint/internal/qerr"
)

type token int

func (token) String() string { return "<RESULT>" }

// Token stands for the evolving value in a plan step. Wherever it appears
// as a step's function, argument or keyword value, it is replaced by the
// value returned from the previous step.
const Token token = 1

// Callable is anything a plan step can invoke.
type Callable interface {
	Call(ctx context.Context, args []any, kwds map[string]any) (any, error)
}

// Function is a named plan function.
type Function struct {
	Name string
	fn   func(ctx context.Context, args []any, kwds map[string]any) (any, error)
}

// Call invokes the function.
func (f *Function) Call(ctx context.Context, args []any, kwds map[string]any) (any, error) {
	return f.fn(ctx, args, kwds)
}

func (f *Function) String() string { return f.Name }

// Step is one call of an execution plan.
type Step struct {
	Function any
	Args     []any
	Kwds     map[string]any
}

// Plan is an ordered list of steps. The first step receives the data
// source as the evolving value.
type Plan []Step

// Plan functions.
var (
	fnGetattr     = &Function{Name: "getattr", fn: getattr}
	fnMakeResult  = &Function{Name: "makeResult", fn: callMakeResult}
	fnApplyToData = &Function{Name: "applyToData", fn: callApplyToData}
	fnApplyData   = &Function{Name: "applyData", fn: callApplyData}
	fnMap         = &Function{Name: "map", fn: callMap}
	fnStarmap     = &Function{Name: "starmap", fn: callStarmap}
	fnFilter      = &Function{Name: "filter", fn: callFilter}
	fnReduce      = &Function{Name: "reduce", fn: callReduce}
	fnDistinct    = &Function{Name: "distinct", fn: callDistinct}
	fnFlatten     = &Function{Name: "flatten", fn: callFlatten}
	fnUnwrap      = &Function{Name: "unwrap", fn: callUnwrap}

	fnSum   = &Function{Name: "sum", fn: aggregateCall(aggregate.Sum)}
	fnCount = &Function{Name: "count", fn: aggregateCall(aggregate.Count)}
	fnAvg   = &Function{Name: "avg", fn: aggregateCall(aggregate.Avg)}
	fnMin   = &Function{Name: "min", fn: aggregateCall(aggregate.Min)}
	fnMax   = &Function{Name: "max", fn: aggregateCall(aggregate.Max)}
)

// Method names getattr resolves on a Source.
const (
	methodSelect          = "select"
	methodSelectDistinct  = "select_distinct"
	methodSelectAggregate = "select_aggregate"
)

// translate returns the execution step for a query step.
func translate(s queryStep) (Step, error) {
	switch s.kind {
	case KindMap:
		return Step{Function: fnMap, Args: []any{s.args[0], Token}}, nil
	case KindStarmap:
		return Step{Function: fnStarmap, Args: []any{s.args[0], Token}}, nil
	case KindFilter:
		return Step{Function: fnFilter, Args: []any{s.args[0], Token}}, nil
	case KindReduce:
		return Step{Function: fnReduce, Args: []any{s.args[0], Token, s.args[1]}}, nil
	case KindApply:
		return Step{Function: fnApplyData, Args: []any{s.args[0], Token}}, nil
	case KindSum:
		return Step{Function: fnApplyToData, Args: []any{fnSum, Token}}, nil
	case KindCount:
		return Step{Function: fnApplyToData, Args: []any{fnCount, Token}}, nil
	case KindAvg:
		return Step{Function: fnApplyToData, Args: []any{fnAvg, Token}}, nil
	case KindMin:
		return Step{Function: fnApplyToData, Args: []any{fnMin, Token}}, nil
	case KindMax:
		return Step{Function: fnApplyToData, Args: []any{fnMax, Token}}, nil
	case KindDistinct:
		return Step{Function: fnDistinct, Args: []any{Token}}, nil
	case KindFlatten:
		return Step{Function: fnFlatten, Args: []any{Token}}, nil
	case KindUnwrap:
		return Step{Function: fnUnwrap, Args: []any{Token}}, nil
	}
	return Step{}, qerr.Type("unrecognized query function %q", string(s.kind))
}

// ExecutionPlan returns the unoptimized plan for running q against src.
// A Source is selected from first; any other value is wrapped in a Result.
func (q *Query) ExecutionPlan(src any) (Plan, error) {
	_, selectable := src.(Source)
	return q.executionPlan(selectable)
}

func (q *Query) executionPlan(selectable bool) (Plan, error) {
	var plan Plan
	if selectable {
		plan = Plan{
			{Function: fnGetattr, Args: []any{Token, methodSelect}},
			{Function: Token, Args: []any{q.spec}, Kwds: map[string]any(q.where)},
		}
	} else {
		plan = Plan{{Function: fnMakeResult, Args: []any{Token}}}
	}
	for _, s := range q.steps {
		step, err := translate(s)
		if err != nil {
			return nil, err
		}
		plan = append(plan, step)
	}
	return plan, nil
}

// getattr resolves a selection method on a Source.
func getattr(_ context.Context, args []any, _ map[string]any) (any, error) {
	src, err := arg[Source](args, 0)
	if err != nil {
		return nil, err
	}
	name, err := arg[string](args, 1)
	if err != nil {
		return nil, err
	}

	var call func(ctx context.Context, args []any, kwds map[string]any) (any, error)
	switch name {
	case methodSelect:
		call = func(ctx context.Context, args []any, kwds map[string]any) (any, error) {
			r, err := src.Select(ctx, args[0], Where(kwds))
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	case methodSelectDistinct:
		call = func(ctx context.Context, args []any, kwds map[string]any) (any, error) {
			r, err := src.SelectDistinct(ctx, args[0], Where(kwds))
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	case methodSelectAggregate:
		call = func(ctx context.Context, args []any, kwds map[string]any) (any, error) {
			fn, err := arg[string](args, 0)
			if err != nil {
				return nil, err
			}
			return src.SelectAggregate(ctx, fn, args[1], Where(kwds))
		}
	default:
		return nil, qerr.Type("%T has no method %q", src, name)
	}
	return &Function{Name: name, fn: call}, nil
}

// arg returns args[i] as a T.
func arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, qerr.Type("missing argument %d", i)
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, qerr.Type("argument %d: unexpected %T", i, args[i])
	}
	return v, nil
}

func callMakeResult(_ context.Context, args []any, _ map[string]any) (any, error) {
	return makeResult(args[0])
}

func callApplyToData(ctx context.Context, args []any, _ map[string]any) (any, error) {
	c, err := arg[Callable](args, 0)
	if err != nil {
		return nil, err
	}
	return applyToData(func(v any) (any, error) {
		return c.Call(ctx, []any{v}, nil)
	}, args[1])
}

func callApplyData(_ context.Context, args []any, _ map[string]any) (any, error) {
	fn, err := arg[MapFunc](args, 0)
	if err != nil {
		return nil, err
	}
	return applyToData(fn, args[1])
}

func callMap(_ context.Context, args []any, _ map[string]any) (any, error) {
	fn, err := arg[MapFunc](args, 0)
	if err != nil {
		return nil, err
	}
	return mapData(fn, args[1])
}

func callStarmap(_ context.Context, args []any, _ map[string]any) (any, error) {
	fn, err := arg[StarFunc](args, 0)
	if err != nil {
		return nil, err
	}
	return starmapData(fn, args[1])
}

func callFilter(_ context.Context, args []any, _ map[string]any) (any, error) {
	return filterData(args[0], args[1])
}

func callReduce(_ context.Context, args []any, _ map[string]any) (any, error) {
	fn, err := arg[ReduceFunc](args, 0)
	if err != nil {
		return nil, err
	}
	init, err := arg[InitFunc](args, 2)
	if err != nil {
		return nil, err
	}
	return reduceData(fn, args[1], init)
}

func callDistinct(_ context.Context, args []any, _ map[string]any) (any, error) {
	return distinctData(args[0])
}

func callFlatten(_ context.Context, args []any, _ map[string]any) (any, error) {
	return flattenData(args[0])
}

func callUnwrap(_ context.Context, args []any, _ map[string]any) (any, error) {
	return unwrapData(args[0])
}

// aggregateCall returns a plan function applying f to the evolving value.
func aggregateCall(f aggregate.Func) func(context.Context, []any, map[string]any) (any, error) {
	return func(_ context.Context, args []any, _ map[string]any) (any, error) {
		return aggregateData(f, args[0])
	}
}
