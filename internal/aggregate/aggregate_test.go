package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/qerr"
)

type sliceIter struct {
	vals []any
	pos  int
	err  error
}

func iter(vals ...any) *sliceIter { return &sliceIter{vals: vals, pos: -1} }

func (s *sliceIter) Next() bool {
	if s.pos+1 >= len(s.vals) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceIter) Value() any { return s.vals[s.pos] }

func (s *sliceIter) Err() error { return s.err }

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		fn   Func
		in   []any
		want any
	}{
		{"sum ints", Sum, []any{int64(1), int64(2), int64(3)}, 6.0},
		{"sum text", Sum, []any{"17", "13", nil, "20"}, 50.0},
		{"sum prefix", Sum, []any{"4.5kg", "abc"}, 4.5},
		{"sum empty", Sum, nil, nil},
		{"sum all null", Sum, []any{nil, nil}, nil},
		{"count skips null", Count, []any{"a", nil, "", int64(0)}, int64(3)},
		{"count empty", Count, nil, int64(0)},
		{"avg", Avg, []any{int64(1), nil, int64(2)}, 1.5},
		{"avg all null", Avg, []any{nil}, nil},
		{"min mixed", Min, []any{"a", nil, int64(10), []byte("z"), 2.5}, 2.5},
		{"max mixed", Max, []any{"a", nil, int64(10), []byte("z"), 2.5}, []byte("z")},
		{"max text", Max, []any{"B", "a", "A"}, "a"},
		{"min all null", Min, []any{nil, nil}, nil},
		{"max empty", Max, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn.Apply(iter(tt.in...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_Error(t *testing.T) {
	boom := errors.New("boom")
	it := iter(int64(1))
	it.err = boom

	_, err := Sum.Apply(it)
	assert.ErrorIs(t, err, boom)

	_, err = Distinct.Apply(iter())
	assert.True(t, qerr.IsType(err))
}

func TestSum_Compensated(t *testing.T) {
	got, err := SumOf(iter(1e100, 1.0, -1e100))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestDistinctOf(t *testing.T) {
	d := DistinctOf(iter("a", "b", "a", int64(1), 1.0, nil, nil))
	var got []any
	for d.Next() {
		got = append(got, d.Value())
	}
	require.NoError(t, d.Err())
	assert.Equal(t, []any{"a", "b", int64(1), nil}, got)
}

func TestSQLExpr(t *testing.T) {
	assert.Equal(t, `CAST(SUM("v") AS REAL)`, Sum.SQLExpr(`"v"`, false))
	assert.Equal(t, `CAST(SUM(DISTINCT "v") AS REAL)`, Sum.SQLExpr(`"v"`, true))
	assert.Equal(t, `COUNT(DISTINCT "v")`, Count.SQLExpr(`"v"`, true))
	assert.Equal(t, `MAX("v")`, Max.SQLExpr(`"v"`, false))
}

func TestParse(t *testing.T) {
	f, err := Parse("sum")
	require.NoError(t, err)
	assert.Equal(t, Sum, f)

	f, err = Parse("AVG")
	require.NoError(t, err)
	assert.Equal(t, Avg, f)

	_, err = Parse("DISTINCT")
	assert.True(t, qerr.IsValidation(err))
	_, err = Parse("median")
	assert.True(t, qerr.IsValidation(err))
}
