package query_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/testutil"
	"github.com/roach88/squint/internal/value"
)

func newQuery(t *testing.T, columns any, where query.Where) *query.Query {
	t.Helper()
	q, err := query.NewFrom(context.Background(), testutil.SampleSelect(t), columns, where)
	require.NoError(t, err)
	return q
}

func fetch(t *testing.T, q *query.Query, opts ...query.ExecuteOption) any {
	t.Helper()
	got, err := q.Fetch(context.Background(), opts...)
	require.NoError(t, err)
	return got
}

func double(v any) (any, error) { return value.CastReal(v) * 2, nil }

func TestFetch_OptimizedMatchesUnoptimized(t *testing.T) {
	grouped := map[string]any{"label1": "value"}

	tests := []struct {
		name  string
		query func(t *testing.T) *query.Query
		want  string
	}{
		{"sum", func(t *testing.T) *query.Query { return newQuery(t, "value", nil).Sum() }, "55.0"},
		{"count", func(t *testing.T) *query.Query { return newQuery(t, "value", nil).Count() }, "4"},
		{"avg", func(t *testing.T) *query.Query { return newQuery(t, "value", nil).Avg() }, "13.75"},
		{"min", func(t *testing.T) *query.Query { return newQuery(t, "value", nil).Min() }, "5"},
		{"max", func(t *testing.T) *query.Query { return newQuery(t, "label2", nil).Max() }, `"z"`},
		{"filtered sum", func(t *testing.T) *query.Query {
			return newQuery(t, "value", query.Where{"label2": "x"}).Sum()
		}, "30.0"},
		{"grouped sum", func(t *testing.T) *query.Query { return newQuery(t, grouped, nil).Sum() },
			`{"a": 50.0, "b": 5.0}`},
		{"grouped count", func(t *testing.T) *query.Query { return newQuery(t, grouped, nil).Count() },
			`{"a": 3, "b": 1}`},
		{"grouped max", func(t *testing.T) *query.Query { return newQuery(t, grouped, nil).Max() },
			`{"a": 20, "b": 5}`},
		{"distinct", func(t *testing.T) *query.Query { return newQuery(t, "label1", nil).Distinct() },
			`["a", "b"]`},
		{"sum then map", func(t *testing.T) *query.Query {
			return newQuery(t, grouped, nil).Sum().Map(double)
		}, `{"a": 100.0, "b": 10.0}`},
		{"tuple sum", func(t *testing.T) *query.Query {
			return newQuery(t, selection.Tuple{"label2", "value"}, nil).Sum()
		}, "(0.0, 55.0)"},
		{"tuple count", func(t *testing.T) *query.Query {
			return newQuery(t, selection.Tuple{"label2", "value"}, nil).Count()
		}, "(4, 4)"},
		{"tuple min", func(t *testing.T) *query.Query {
			return newQuery(t, selection.Tuple{"label2", "value"}, nil).Min()
		}, `("x", 5)`},
		{"tuple max", func(t *testing.T) *query.Query {
			return newQuery(t, selection.Tuple{"label2", "value"}, nil).Max()
		}, `("z", 20)`},
		{"set tuple count", func(t *testing.T) *query.Query {
			return newQuery(t, selection.SetOf{selection.Tuple{"label1", "label2"}}, nil).Count()
		}, "(2, 3)"},
		{"grouped tuple max", func(t *testing.T) *query.Query {
			return newQuery(t, map[string]any{"label1": selection.Tuple{"label2", "value"}}, nil).Max()
		}, `{"a": ("y", 20), "b": ("z", 5)}`},
		{"grouped sum then max", func(t *testing.T) *query.Query {
			return newQuery(t, grouped, nil).Sum().Max()
		}, `{"a": 50.0, "b": 5.0}`},
		{"grouped count then sum", func(t *testing.T) *query.Query {
			return newQuery(t, grouped, nil).Count().Sum()
		}, `{"a": 3.0, "b": 1.0}`},
		{"no rows", func(t *testing.T) *query.Query {
			return newQuery(t, "value", query.Where{"label1": "none"}).Sum()
		}, "None"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query(t)
			optimized := fetch(t, q)
			plain := fetch(t, q, query.WithoutOptimization())
			assert.Equal(t, tt.want, value.Repr(optimized))
			assert.Equal(t, tt.want, value.Repr(plain))
		})
	}
}

func TestFetch_Grouped(t *testing.T) {
	got := fetch(t, newQuery(t, map[string]any{"label1": selection.SetOf{"label2"}}, nil)).(*value.Map)
	assert.Equal(t, []any{"a", "b"}, got.Keys())
	a, _ := got.Get("a")
	assert.ElementsMatch(t, value.Set{"x", "y"}, a)
	b, _ := got.Get("b")
	assert.Equal(t, value.Set{"z"}, b)
}

func TestFetch_PurePipeline(t *testing.T) {
	upper := func(v any) (any, error) { return strings.ToUpper(v.(string)), nil }
	add := func(acc, v any) (any, error) { return acc.(int) + v.(int), nil }
	join := func(args ...any) (any, error) { return fmt.Sprint(args...), nil }

	tests := []struct {
		name  string
		query *query.Query
		want  any
	}{
		{"map", query.FromObject([]any{"a", "b"}).Map(upper), []any{"A", "B"}},
		{"map set becomes list", query.FromObject(value.Set{"a", "b"}).Map(func(any) (any, error) { return 1, nil }),
			[]any{1, 1}},
		{"typed slice", query.FromObject([]int{1, 2, 3}).Reduce(add, nil), 6},
		{"reduce with initializer", query.FromObject([]any{}).Reduce(add, func() any { return 10 }), 10},
		{"filter truthy", query.FromObject([]any{0, 1, "", "x", nil}).Filter(true), []any{1, "x"}},
		{"filter literal", query.FromObject([]any{"a", "b", "a"}).Filter("a"), []any{"a", "a"}},
		{"filter regexp", query.FromObject([]any{"apple", "pear"}).Filter(regexp.MustCompile("^ap")), []any{"apple"}},
		{"starmap", query.FromObject([]any{value.Tuple{"a", 1}, "b"}).Starmap(join), []any{"a1", "b"}},
		{"distinct", query.FromObject([]any{1, 1.0, "1", 2}).Distinct(), []any{1, "1", 2}},
		{"scalar wraps", query.FromObject(5).Sum(), 5.0},
		{"sum of reduced scalar", query.FromObject([]any{1, 2}).Reduce(func(acc, v any) (any, error) {
			return acc.(int) + v.(int), nil
		}, nil).Sum(), 3.0},
		{"count of scalar", query.FromObject([]any{7}).Unwrap().Count(), int64(1)},
		{"count of null", query.FromObject([]any{nil}).Unwrap().Count(), int64(0)},
		{"max of scalar", query.FromObject([]any{"only"}).Unwrap().Max(), "only"},
		{"avg of scalar", query.FromObject([]any{"2.5"}).Unwrap().Avg(), 2.5},
		{"tuple rows sum by field", query.FromObject([]any{value.Tuple{1, 2}, value.Tuple{3, nil}}).Sum(),
			value.Tuple{4.0, 2.0}},
		{"apply", query.FromObject([]any{1, 2}).Apply(func(v any) (any, error) {
			return v.(*result.Result).Fetch()
		}), []any{1, 2}},
		{"min across types", query.FromObject([]any{"b", nil, 3, []byte("x")}).Min(), 3},
		{"max across types", query.FromObject([]any{"b", nil, 3, []byte("x")}).Max(), []byte("x")},
		{"unwrap single", query.FromObject([]any{"only"}).Unwrap(), "only"},
		{"unwrap many", query.FromObject([]any{1, 2}).Unwrap(), []any{1, 2}},
		{"flatten non-items", query.FromObject([]any{1, 2}).Flatten(), []any{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fetch(t, tt.query))
		})
	}
}

func TestFetch_ScalarGroupsAggregate(t *testing.T) {
	groups := value.NewMap(value.Item{Key: "a", Value: int64(2)}, value.Item{Key: "b", Value: int64(3)})

	tests := []struct {
		name  string
		query *query.Query
		want  string
	}{
		{"sum", query.FromObject(groups).Sum(), `{"a": 2.0, "b": 3.0}`},
		{"count", query.FromObject(groups).Count(), `{"a": 1, "b": 1}`},
		{"max", query.FromObject(groups).Max(), `{"a": 2, "b": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, value.Repr(fetch(t, tt.query)))
		})
	}
}

func TestFetch_GroupedPipeline(t *testing.T) {
	grouped := map[string]any{"label1": "label2"}

	got := fetch(t, newQuery(t, grouped, nil).Distinct().Unwrap())
	m := got.(*value.Map)
	b, _ := m.Get("b")
	assert.Equal(t, "z", b)
	a, _ := m.Get("a")
	assert.ElementsMatch(t, []any{"x", "y"}, a)

	got = fetch(t, newQuery(t, selection.Dict{{Key: "label1", Value: "value"}}, query.Where{"label2": "x"}).Flatten())
	assert.ElementsMatch(t, []any{value.Tuple{"a", int64(17)}, value.Tuple{"a", int64(13)}}, got)

	got = fetch(t, newQuery(t, grouped, nil).Filter("z"))
	assert.Equal(t, `{"a": [], "b": ["z"]}`, value.Repr(got))
}

func TestQuery_Immutable(t *testing.T) {
	q := newQuery(t, "value", nil)
	summed := q.Sum()
	mapped := q.Map(double)

	assert.Empty(t, q.Steps())
	assert.Equal(t, []query.StepKind{query.KindSum}, summed.Steps())
	assert.Equal(t, []query.StepKind{query.KindMap}, mapped.Steps())
	assert.Equal(t, "55.0", value.Repr(fetch(t, summed)))
}

func TestQuery_String(t *testing.T) {
	q := newQuery(t, "value", query.Where{"label1": "a"}).Sum()
	assert.Equal(t, `Query(<Select sample>, ["value"], label1="a").Sum()`, q.String())

	unbound, err := query.New(selection.Tuple{"label1", "value"}, nil)
	require.NoError(t, err)
	assert.Equal(t, `Query([("label1", "value")]).Distinct().Map(query_test.double)`,
		unbound.Distinct().Map(double).String())

	assert.Equal(t, `Query.FromObject([1, 2]).Count()`, query.FromObject([]any{1, 2}).Count().String())
}

func TestExecute_Sources(t *testing.T) {
	ctx := context.Background()
	sel := testutil.SampleSelect(t)

	unbound, err := query.New("value", query.Where{"label1": "b"})
	require.NoError(t, err)

	got, err := unbound.Sum().Fetch(ctx, query.WithSource(sel))
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	_, err = unbound.Execute(ctx)
	assert.True(t, qerr.IsType(err), "missing source")

	_, err = unbound.Execute(ctx, query.WithSource([]any{1}))
	assert.True(t, qerr.IsType(err), "wrong source type")

	bound := newQuery(t, "value", nil)
	_, err = bound.Execute(ctx, query.WithSource(sel))
	assert.True(t, qerr.IsType(err), "two sources")
}

func TestNewFrom_Errors(t *testing.T) {
	ctx := context.Background()
	sel := testutil.SampleSelect(t)

	_, err := query.NewFrom(ctx, sel, selection.Tuple{"label1", "nope"}, nil)
	assert.True(t, qerr.IsLookup(err))

	_, err = query.NewFrom(ctx, sel, "label1", query.Where{"nope": 1})
	assert.True(t, qerr.IsLookup(err))

	_, err = query.NewFrom(ctx, sel, map[string]any{"label1": map[string]any{"label2": "value"}}, nil)
	assert.True(t, qerr.IsValidation(err))

	_, err = query.New(42, nil)
	assert.True(t, qerr.IsValidation(err))
}

func TestExecute_ElementErrors(t *testing.T) {
	ctx := context.Background()

	_, err := query.FromObject([]any{1}).Sum().Filter(true).Execute(ctx)
	assert.True(t, qerr.IsType(err), "filter of a single element")

	_, err = query.FromObject([]any{}).Reduce(func(acc, v any) (any, error) { return acc, nil }, nil).Execute(ctx)
	assert.True(t, qerr.IsType(err), "reduce of nothing")
}

func TestExecute_MapErrorSurfacesFromResult(t *testing.T) {
	boom := errors.New("boom")
	q := newQuery(t, "value", nil).Map(func(v any) (any, error) {
		if v == int64(20) {
			return nil, boom
		}
		return v, nil
	})

	v, err := q.Execute(context.Background())
	require.NoError(t, err)
	r := v.(*result.Result)

	var seen []any
	for r.Next() {
		seen = append(seen, r.Value())
	}
	assert.ErrorIs(t, r.Err(), boom)
	assert.Equal(t, []any{int64(17), int64(13)}, seen)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestExplain_Golden(t *testing.T) {
	unbound, err := query.New(map[string]any{"label1": "value"}, query.Where{"label2": value.Set{"x", "y"}})
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    *query.Query
		optimize bool
	}{
		{"explain_sum_optimized", newQuery(t, "value", query.Where{"label1": "a"}).Sum(), true},
		{"explain_sum_unoptimized", newQuery(t, "value", query.Where{"label1": "a"}).Sum(), false},
		{"explain_unbound_distinct", unbound.Distinct().Map(double), true},
		{"explain_from_object", query.FromObject([]any{1, 2, 3}).Filter(true).Max(), true},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Explain(tt.optimize)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(got))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		query      *query.Query
		fieldnames []string
		want       string
	}{
		{
			name:  "grouped",
			query: newQuery(t, map[string]any{"label1": "value"}, query.Where{"value": value.Set{int64(17), int64(5)}}),
			want:  "label1,value\na,17\nb,5\n",
		},
		{
			name:  "mismatched width drops the header",
			query: newQuery(t, selection.Tuple{"label1", "label2", "value"}, query.Where{"label1": "b"}).Map(func(v any) (any, error) {
				return v.(value.Tuple)[0], nil
			}),
			want: "b\n",
		},
		{
			name:       "explicit header",
			query:      newQuery(t, map[string]any{"label1": "value"}, nil).Sum(),
			fieldnames: []string{"label", "total"},
			want:       "label,total\na,50.0\nb,5.0\n",
		},
		{
			name:  "scalar",
			query: query.FromObject([]any{nil, 1}).Count(),
			want:  "1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.query.WriteCSV(ctx, &buf, tt.fieldnames))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
