package preview

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/value"
)

func init() {
	color.NoColor = true
}

func TestRender_Scalar(t *testing.T) {
	got, err := NewFormatter().Render(50.0, []string{"total"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "---- preview ----\n"))
	assert.Contains(t, got, "| total")
	assert.Contains(t, got, "50.0")
}

func TestRender_TuplesWithHeader(t *testing.T) {
	r := result.FromSlice([]any{value.Tuple{"a", int64(1)}, value.Tuple{"b", int64(2)}}, result.List)

	got, err := NewFormatter().Render(r, []string{"label", "n"})
	require.NoError(t, err)
	assert.Contains(t, got, "| label")
	assert.Contains(t, got, "|---")
	assert.Contains(t, got, "| b")
	assert.NotContains(t, got, "...")
}

func TestRender_TruncatesWithoutConsuming(t *testing.T) {
	vals := make([]any, 20)
	for i := range vals {
		vals[i] = int64(i)
	}
	r := result.FromSlice(vals, result.List)

	f := NewFormatter()
	got, err := f.Render(r, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "| #1")
	assert.Contains(t, got, "...")
	assert.Contains(t, got, "| 6 ")
	assert.NotContains(t, got, "| 7 ")

	all, err := r.Fetch()
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestRender_Groups(t *testing.T) {
	groups := result.FromItems([]value.Item{
		{Key: "a", Value: result.FromSlice([]any{int64(17), int64(13)}, result.List)},
		{Key: "b", Value: result.FromSlice([]any{"x", "y", "z"}, result.Set)},
	})

	f := NewFormatter()
	f.MaxNested = 2
	got, err := f.Render(groups, []string{"label1", "value"})
	require.NoError(t, err)
	assert.Contains(t, got, "[17, 13]")
	assert.Contains(t, got, `{"x", "y", ...}`)

	m, err := groups.Fetch()
	require.NoError(t, err)
	b, _ := m.(*value.Map).Get("b")
	assert.Equal(t, value.Set{"x", "y", "z"}, b)
}

func TestRender_Empty(t *testing.T) {
	got, err := NewFormatter().Render(result.FromSlice(nil, result.List), nil)
	require.NoError(t, err)
	assert.Equal(t, "---- preview ----\n_No rows_\n", got)
}
