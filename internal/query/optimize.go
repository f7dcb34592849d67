package query

import (
	"log/slog"
	"slices"

	"github.com/roach88/squint/internal/aggregate"
)

// rule rewrites the selection call of a plan together with the step that
// follows it. It reports false when it does not apply.
type rule struct {
	name    string
	rewrite func(call, next Step) (Plan, bool)
}

var rules = []rule{
	{name: "push down aggregate", rewrite: pushDownAggregate},
	{name: "push down distinct", rewrite: pushDownDistinct},
}

// pushedAggregates maps plan aggregate functions to their SQL names.
var pushedAggregates = map[*Function]aggregate.Func{
	fnSum:   aggregate.Sum,
	fnCount: aggregate.Count,
	fnAvg:   aggregate.Avg,
	fnMin:   aggregate.Min,
	fnMax:   aggregate.Max,
}

// Optimize rewrites plans that start with a selection so that work is
// done by the source. It returns the plan unchanged and false when no
// rule applies.
func Optimize(plan Plan) (Plan, bool) {
	if len(plan) < 3 || !isGetattr(plan[0], methodSelect) {
		return plan, false
	}
	for _, r := range rules {
		head, ok := r.rewrite(plan[1], plan[2])
		if !ok {
			continue
		}
		slog.Debug("optimized execution plan", "rule", r.name)
		return slices.Concat(head, plan[3:]), true
	}
	return plan, false
}

func isGetattr(s Step, method string) bool {
	return s.Function == fnGetattr && len(s.Args) == 2 &&
		s.Args[0] == Token && s.Args[1] == method
}

func isTokenStep(s Step, fn *Function) bool {
	return s.Function == fn && len(s.Args) == 1 && s.Args[0] == Token && len(s.Kwds) == 0
}

// pushDownAggregate turns select + applyToData(aggregate) into a single
// aggregate selection.
func pushDownAggregate(call, next Step) (Plan, bool) {
	if next.Function != fnApplyToData || len(next.Args) != 2 || next.Args[1] != Token {
		return nil, false
	}
	fn, _ := next.Args[0].(*Function)
	agg, ok := pushedAggregates[fn]
	if !ok {
		return nil, false
	}
	return Plan{
		{Function: fnGetattr, Args: []any{Token, methodSelectAggregate}},
		{Function: call.Function, Args: append([]any{agg.SQLName()}, call.Args...), Kwds: call.Kwds},
	}, true
}

// pushDownDistinct turns select + distinct into a distinct selection.
func pushDownDistinct(call, next Step) (Plan, bool) {
	if !isTokenStep(next, fnDistinct) {
		return nil, false
	}
	return Plan{
		{Function: fnGetattr, Args: []any{Token, methodSelectDistinct}},
		call,
	}, true
}
