package queryfile

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/testutil"
	"github.com/roach88/squint/internal/value"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	f, err := Load(filepath.Join("testdata", "totals.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "totals", f.Name)
	assert.Equal(t, []string{filepath.Join("testdata", "sample.csv")}, f.Sources)
	assert.Equal(t, selection.Dict{{Key: "label1", Value: "value"}}, f.Columns())

	sel, err := f.Open(ctx, testutil.OpenStore(t))
	require.NoError(t, err)
	defer sel.Close()

	q, err := f.Query(ctx, sel)
	require.NoError(t, err)
	got, err := q.Fetch(ctx, f.ExecuteOptions()...)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 50.0, "b": 5.0}`, value.Repr(got))
}

func TestParse_Conditions(t *testing.T) {
	f, err := Parse([]byte(`
select: value
where:
  label1: a
  label2: {regex: "^[xy]"}
  value: [17, 13, 20]
steps:
  - filter: [17, 13]
  - count
optimize: false
`))
	require.NoError(t, err)

	assert.Equal(t, "a", f.where["label1"])
	assert.Equal(t, value.Set{int64(17), int64(13), int64(20)}, f.where["value"])
	assert.Equal(t, regexp.MustCompile("^[xy]").String(), f.where["label2"].(*regexp.Regexp).String())
	assert.Len(t, f.ExecuteOptions(), 1)

	ctx := context.Background()
	q, err := f.Query(ctx, testutil.SampleSelect(t))
	require.NoError(t, err)
	assert.Equal(t, []query.StepKind{query.KindFilter, query.KindCount}, q.Steps())

	got, err := q.Fetch(ctx, f.ExecuteOptions()...)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestParse_Selections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want any
	}{
		{"field", "select: A", "A"},
		{"tuple list", "select: [[A, B]]", selection.List{selection.Tuple{"A", "B"}}},
		{"set", "select: !!set {A}", selection.SetOf{"A"}},
		{"tuple key", "select:\n  ? [A, B]\n  : C\n", selection.Dict{{Key: selection.Tuple{"A", "B"}, Value: "C"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Columns())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing select", "sources: [a.csv]"},
		{"unknown field", "select: A\nselct: B"},
		{"nested mapping", "select: {A: {B: C}}"},
		{"unsupported step", "select: A\nsteps: [pivot]"},
		{"bad filter", "select: A\nsteps: [{map: x}]"},
		{"bad regex", "select: A\nwhere: {A: {regex: \"(\"}}"},
		{"bad condition", "select: A\nwhere: {A: {glob: x}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestOpen_NoSources(t *testing.T) {
	f, err := Parse([]byte("select: A"))
	require.NoError(t, err)
	_, err = f.Open(context.Background(), testutil.OpenStore(t))
	assert.True(t, qerr.IsValidation(err))
}
