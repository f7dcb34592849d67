package query

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/queryir"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/value"
)

// Where holds keyword filters: field name to condition.
type Where = queryir.Where

// Source is a selectable data source. *selector.Select implements it.
type Source interface {
	Select(ctx context.Context, columns any, where Where) (*result.Result, error)
	SelectDistinct(ctx context.Context, columns any, where Where) (*result.Result, error)
	SelectAggregate(ctx context.Context, fn string, columns any, where Where) (any, error)
	AssertFieldsExist(ctx context.Context, names []string) error
	String() string
}

// StepKind names a query step.
type StepKind string

const (
	KindMap      StepKind = "map"
	KindStarmap  StepKind = "starmap"
	KindFilter   StepKind = "filter"
	KindReduce   StepKind = "reduce"
	KindApply    StepKind = "apply"
	KindSum      StepKind = "sum"
	KindCount    StepKind = "count"
	KindAvg      StepKind = "avg"
	KindMin      StepKind = "min"
	KindMax      StepKind = "max"
	KindDistinct StepKind = "distinct"
	KindFlatten  StepKind = "flatten"
	KindUnwrap   StepKind = "unwrap"
)

// MapFunc transforms one element (or, for Apply, one whole group).
type MapFunc func(v any) (any, error)

// StarFunc receives the fields of a tuple element as separate arguments.
type StarFunc func(args ...any) (any, error)

// ReduceFunc combines an accumulated value with the next element.
type ReduceFunc func(acc, v any) (any, error)

// InitFunc returns the initial value of a reduction.
type InitFunc func() any

type queryStep struct {
	kind StepKind
	args []any
}

func (s queryStep) String() string {
	name := cases.Title(language.Und).String(string(s.kind))
	return name + "(" + reprArgs(s.args) + ")"
}

// Query is an immutable description of a selection and the steps applied
// to it. Every chain method returns a new Query.
type Query struct {
	source     Source
	object     any
	fromObject bool
	spec       selection.Spec
	where      Where
	steps      []queryStep
}

// New returns a Query that is not bound to a source. A source must be
// given when it is executed.
func New(columns any, where Where) (*Query, error) {
	spec, err := selection.Normalize(columns)
	if err != nil {
		return nil, err
	}
	return &Query{spec: spec, where: where.Clone()}, nil
}

// NewFrom returns a Query bound to src. Every selected and filtered field
// must exist in src.
func NewFrom(ctx context.Context, src Source, columns any, where Where) (*Query, error) {
	if src == nil {
		return nil, qerr.Type("query source must not be nil")
	}
	spec, err := selection.Normalize(columns)
	if err != nil {
		return nil, err
	}
	names := append(selection.Columns(spec), where.Fields()...)
	if err := src.AssertFieldsExist(ctx, names); err != nil {
		return nil, err
	}
	return &Query{source: src, spec: spec, where: where.Clone()}, nil
}

// FromObject returns a Query over a plain value. Slices, sets, maps and
// Results are iterated; any other value is treated as a one-element list.
// A *Query is copied.
func FromObject(obj any) *Query {
	if q, ok := obj.(*Query); ok {
		return q.clone()
	}
	if _, ok := collection(obj); !ok {
		obj = []any{obj}
	}
	return &Query{object: obj, fromObject: true}
}

func (q *Query) clone() *Query {
	c := *q
	c.steps = slices.Clone(q.steps)
	return &c
}

func (q *Query) addStep(kind StepKind, args ...any) *Query {
	c := *q
	c.steps = append(slices.Clip(q.steps), queryStep{kind: kind, args: args})
	return &c
}

// Map applies fn to each element. Set groups become lists since the
// results need not be distinct.
func (q *Query) Map(fn MapFunc) *Query { return q.addStep(KindMap, fn) }

// Starmap applies fn to the fields of each element. Non-tuple elements are
// passed as a single argument.
func (q *Query) Starmap(fn StarFunc) *Query { return q.addStep(KindStarmap, fn) }

// Filter keeps the elements matching pred. pred is anything predicate.For
// accepts; true keeps truthy elements.
func (q *Query) Filter(pred any) *Query { return q.addStep(KindFilter, pred) }

// Reduce folds each group into one value, left to right. When init is nil
// the first element is the initial value.
func (q *Query) Reduce(fn ReduceFunc, init InitFunc) *Query {
	return q.addStep(KindReduce, fn, init)
}

// Apply calls fn once per group with the whole group.
func (q *Query) Apply(fn MapFunc) *Query { return q.addStep(KindApply, fn) }

// Sum totals the non-null elements as floats.
func (q *Query) Sum() *Query { return q.addStep(KindSum) }

// Count counts the non-null elements.
func (q *Query) Count() *Query { return q.addStep(KindCount) }

// Avg averages the non-null elements. Text with no numeric prefix counts
// as zero.
func (q *Query) Avg() *Query { return q.addStep(KindAvg) }

// Min returns the smallest non-null element.
func (q *Query) Min() *Query { return q.addStep(KindMin) }

// Max returns the largest non-null element.
func (q *Query) Max() *Query { return q.addStep(KindMax) }

// Distinct removes duplicate elements.
func (q *Query) Distinct() *Query { return q.addStep(KindDistinct) }

// Flatten turns grouped data into rows of key fields followed by value
// fields. Other data is left unchanged.
func (q *Query) Flatten() *Query { return q.addStep(KindFlatten) }

// Unwrap replaces single-element groups with their element.
func (q *Query) Unwrap() *Query { return q.addStep(KindUnwrap) }

// Source returns the bound source, or nil.
func (q *Query) Source() Source { return q.source }

// Spec returns the normalized selection, or nil for object queries.
func (q *Query) Spec() selection.Spec { return q.spec }

// Steps returns the kinds of the query steps in order.
func (q *Query) Steps() []StepKind {
	kinds := make([]StepKind, len(q.steps))
	for i, s := range q.steps {
		kinds[i] = s.kind
	}
	return kinds
}

// String renders the query the way it was built, for example
// Query(<Select sample>, ["value"], label1="a").Sum().
func (q *Query) String() string {
	var b strings.Builder
	if q.fromObject {
		b.WriteString("Query.FromObject(" + value.Repr(q.object) + ")")
	} else {
		var parts []string
		if q.source != nil {
			parts = append(parts, q.source.String())
		}
		parts = append(parts, q.spec.String())
		parts = append(parts, reprKwds(q.where)...)
		b.WriteString("Query(" + strings.Join(parts, ", ") + ")")
	}
	for _, s := range q.steps {
		b.WriteString("." + s.String())
	}
	return b.String()
}
