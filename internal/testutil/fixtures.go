// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/squint/internal/selector"
	"github.com/roach88/squint/internal/store"
)

// SampleHeader and SampleRows are the small labelled dataset most tests
// select from.
var (
	SampleHeader = []string{"label1", "label2", "value"}
	SampleRows   = [][]any{
		{"a", "x", int64(17)},
		{"a", "x", int64(13)},
		{"a", "y", int64(20)},
		{"b", "z", int64(5)},
	}
)

// OpenStore opens a file-backed store in a test temp directory.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// NewSelect returns a Select on a fresh store loaded with header and rows
// under the source name "sample".
func NewSelect(t testing.TB, header []string, rows [][]any) *selector.Select {
	t.Helper()
	sel, err := selector.New(OpenStore(t))
	if err != nil {
		t.Fatalf("selector.New() failed: %v", err)
	}
	t.Cleanup(func() { sel.Close() })

	if err := sel.Load(context.Background(), "sample", header, rows); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return sel
}

// SampleSelect returns a Select loaded with the sample dataset.
func SampleSelect(t testing.TB) *selector.Select {
	t.Helper()
	return NewSelect(t, SampleHeader, SampleRows)
}
