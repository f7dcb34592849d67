package queryir

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/value"
)

func TestFromWhere_Empty(t *testing.T) {
	assert.Nil(t, FromWhere(nil))
	assert.Nil(t, FromWhere(Where{}))
}

func TestFromWhere_Single(t *testing.T) {
	assert.Equal(t, Equals{Field: "A", Value: "x"}, FromWhere(Where{"A": "x"}))
}

func TestFromWhere_SortedConjunction(t *testing.T) {
	re := regexp.MustCompile("^a")
	got := FromWhere(Where{
		"C": re,
		"A": value.Set{"x", "y"},
		"B": []any{int64(1), int64(1), int64(2)},
	})

	and, ok := got.(And)
	require.True(t, ok)
	require.Len(t, and.Predicates, 3)

	assert.Equal(t, In{Field: "A", Values: []any{"x", "y"}}, and.Predicates[0])
	assert.Equal(t, In{Field: "B", Values: []any{int64(1), int64(2)}}, and.Predicates[1])

	m, ok := and.Predicates[2].(Match)
	require.True(t, ok)
	assert.Equal(t, "C", m.Field)
	assert.True(t, m.Matcher.Match("abc"))
	assert.False(t, m.Matcher.Match("bcd"))
}

func TestFromWhere_Functions(t *testing.T) {
	isBig := func(v any) bool { return value.CastReal(v) > 10 }
	got := FromWhere(Where{"A": isBig})

	m, ok := got.(Match)
	require.True(t, ok)
	assert.True(t, m.Matcher.Match("17"))
	assert.False(t, m.Matcher.Match("5"))
}

func TestWhere_FieldsAndClone(t *testing.T) {
	w := Where{"b": 1, "a": 2}
	assert.Equal(t, []string{"a", "b"}, w.Fields())

	c := w.Clone()
	c["c"] = 3
	assert.Len(t, w, 2)
	assert.Nil(t, Where(nil).Clone())
}
