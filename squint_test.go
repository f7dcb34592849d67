package squint_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint"
	"github.com/roach88/squint/internal/value"
)

const sampleCSV = `label1,label2,value
a,x,17
a,x,13
a,y,20
b,z,5
`

func newSelect(t *testing.T) *squint.Select {
	t.Helper()
	st, err := squint.OpenStore(filepath.Join(t.TempDir(), "squint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sel, err := squint.NewSelectOn(st)
	require.NoError(t, err)
	t.Cleanup(func() { sel.Close() })

	require.NoError(t, sel.LoadReader(context.Background(), "sample", strings.NewReader(sampleCSV)))
	return sel
}

func TestGroupedSum(t *testing.T) {
	ctx := context.Background()
	sel := newSelect(t)

	q, err := squint.NewFrom(ctx, sel, map[string]any{"label1": "value"}, nil)
	require.NoError(t, err)

	got, err := q.Sum().Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 50.0, "b": 5.0}`, value.Repr(got))
}

func TestUnboundQuery(t *testing.T) {
	ctx := context.Background()
	sel := newSelect(t)

	q, err := squint.New(squint.SetOf{"label2"}, squint.Where{"label1": "a"})
	require.NoError(t, err)

	got, err := q.Count().Fetch(ctx, squint.WithSource(sel))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestFromObject(t *testing.T) {
	got, err := squint.FromObject([]any{int64(3), int64(1), int64(2)}).Max().Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestExecuteIsLazy(t *testing.T) {
	ctx := context.Background()
	sel := newSelect(t)

	q, err := squint.NewFrom(ctx, sel, "value", squint.Where{"label2": "x"})
	require.NoError(t, err)

	v, err := q.Execute(ctx)
	require.NoError(t, err)
	r, ok := v.(*squint.Result)
	require.True(t, ok)

	got, err := squint.Fetch(r)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"17", "13"}, got)
	assert.NoError(t, r.Close())
}
