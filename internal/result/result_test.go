package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/value"
)

// countingIter yields 1..n and counts how often its end was reported.
type countingIter struct {
	n, pos int
	ends   int
	err    error
}

func (c *countingIter) Next() bool {
	if c.pos >= c.n {
		c.ends++
		return false
	}
	c.pos++
	return true
}

func (c *countingIter) Value() any { return int64(c.pos) }

func (c *countingIter) Err() error { return c.err }

func TestResult_ClosesOnExhaustion(t *testing.T) {
	closes := 0
	r := New(&countingIter{n: 2}, List, func() error { closes++; return nil })

	var got []any
	for r.Next() {
		got = append(got, r.Value())
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []any{int64(1), int64(2)}, got)
	assert.Equal(t, 1, closes)

	assert.False(t, r.Next())
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, closes, "close callback must fire exactly once")
}

func TestResult_CloseBeforeExhaustion(t *testing.T) {
	closes := 0
	r := New(&countingIter{n: 5}, List, func() error { closes++; return nil })

	require.True(t, r.Next())
	require.NoError(t, r.Close())
	assert.False(t, r.Next())
	assert.Equal(t, 1, closes)
}

func TestResult_ErrorKeepsResultClosable(t *testing.T) {
	boom := errors.New("boom")
	closes := 0
	r := New(&countingIter{n: 0, err: boom}, List, func() error { closes++; return nil })

	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), boom)
	assert.Equal(t, 0, closes)

	require.NoError(t, r.Close())
	assert.Equal(t, 1, closes)
}

func TestResult_Peek(t *testing.T) {
	src := &countingIter{n: 3}
	r := New(src, List, nil)

	head, err := r.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, head)

	// Peeking again does not advance.
	head, err = r.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, head)

	all, err := r.Peek(10)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, all)
	assert.Equal(t, 1, src.ends)

	got, err := r.Fetch()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, got)
	assert.Equal(t, 1, src.ends, "exhausted source must not be advanced again")
}

func TestResult_PeekIsBounded(t *testing.T) {
	r := New(&countingIter{n: MaxLookahead * 2}, List, nil)

	head, err := r.Peek(MaxLookahead + 10)
	require.NoError(t, err)
	assert.Len(t, head, MaxLookahead)

	empty, err := r.Peek(-1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestResult_Fetch(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		got, err := FromSlice(nil, List).Fetch()
		require.NoError(t, err)
		assert.Equal(t, []any{}, got)
	})

	t.Run("set", func(t *testing.T) {
		got, err := FromSlice([]any{"a", "b", "a"}, Set).Fetch()
		require.NoError(t, err)
		assert.Equal(t, value.Set{"a", "b"}, got)
	})

	t.Run("nested map", func(t *testing.T) {
		r := FromItems([]value.Item{
			{Key: "a", Value: FromSlice([]any{int64(1), int64(2)}, List)},
			{Key: value.Tuple{"b", "x"}, Value: int64(3)},
		})
		got, err := r.Fetch()
		require.NoError(t, err)

		m := got.(*value.Map)
		require.Equal(t, 2, m.Len())
		a, _ := m.Get("a")
		assert.Equal(t, []any{int64(1), int64(2)}, a)
		b, _ := m.Get(value.Tuple{"b", "x"})
		assert.Equal(t, int64(3), b)
	})

	t.Run("map of non-items", func(t *testing.T) {
		_, err := FromSlice([]any{1}, Map).Fetch()
		assert.Error(t, err)
	})
}

func TestFunc(t *testing.T) {
	n := 0
	it := Func(func() (any, bool, error) {
		n++
		if n > 2 {
			return nil, false, nil
		}
		return n, true, nil
	})
	got, err := New(it, List, nil).Fetch()
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)

	boom := errors.New("boom")
	r := New(Func(func() (any, bool, error) { return nil, false, boom }), List, nil)
	_, err = r.Fetch()
	assert.ErrorIs(t, err, boom)
}

func TestMaterialize(t *testing.T) {
	v, err := Materialize(int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = Materialize(FromSlice([]any{"x"}, Set))
	require.NoError(t, err)
	assert.Equal(t, value.Set{"x"}, v)
}
