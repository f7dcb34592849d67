package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns_MissingTable(t *testing.T) {
	s := createTestStore(t)

	cols, err := s.Columns(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, cols)

	exists, err := s.TableExists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewTableName(t *testing.T) {
	a, b := NewTableName(), NewTableName()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "tbl_"))
	assert.NotContains(t, a, "-")
}
