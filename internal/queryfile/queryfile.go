// Package queryfile reads query descriptions from YAML files.
//
// A query file names the CSV sources to load, the selection, keyword
// filters and the steps to apply:
//
//	name: totals
//	sources: [sales.csv]
//	select: {region: amount}
//	where:
//	  status: [open, pending]   # membership
//	  code: {regex: "^A"}       # pattern match
//	steps: [sum]
//	optimize: true
//
// Only steps that need no Go function are available: sum, count, avg, min,
// max, distinct, flatten, unwrap and filter (with a condition).
package queryfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/squint/internal/predicate"
	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/selector"
	"github.com/roach88/squint/internal/store"
	"github.com/roach88/squint/internal/value"
)

// File is a parsed query file.
type File struct {
	// Name labels the query in output. Defaults to the file name.
	Name string `yaml:"name,omitempty"`

	// Sources lists CSV files to load, relative to the query file.
	Sources []string `yaml:"sources"`

	// Select is the selection in the YAML form of the mini-language.
	Select yaml.Node `yaml:"select"`

	// Where maps field names to conditions.
	Where map[string]yaml.Node `yaml:"where,omitempty"`

	// Steps are applied in order.
	Steps []yaml.Node `yaml:"steps,omitempty"`

	// Optimize enables plan optimization. Defaults to true.
	Optimize *bool `yaml:"optimize,omitempty"`

	columns any
	where   query.Where
	steps   []step
}

type step struct {
	kind query.StepKind
	cond any
}

// Load reads and parses a query file. Relative source paths are resolved
// against the file's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, src := range f.Sources {
		if !filepath.IsAbs(src) {
			f.Sources[i] = filepath.Join(dir, src)
		}
	}
	if f.Name == "" {
		f.Name = filepath.Base(path)
	}
	return f, nil
}

// Parse parses a query file. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.compile(); err != nil {
		return nil, fmt.Errorf("invalid query file: %w", err)
	}
	return &f, nil
}

func (f *File) compile() error {
	if f.Select.Kind == 0 {
		return qerr.Validation("select is required")
	}
	columns, err := selection.DecodeYAML(&f.Select)
	if err != nil {
		return err
	}
	if _, err := selection.Normalize(columns); err != nil {
		return err
	}
	f.columns = columns

	if len(f.Where) > 0 {
		f.where = make(query.Where, len(f.Where))
		for field, node := range f.Where {
			cond, err := decodeCondition(&node)
			if err != nil {
				return fmt.Errorf("where %s: %w", field, err)
			}
			f.where[field] = cond
		}
	}

	for i := range f.Steps {
		s, err := decodeStep(&f.Steps[i])
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		f.steps = append(f.steps, s)
	}
	return nil
}

// decodeStep reads "sum" or {filter: condition}.
func decodeStep(node *yaml.Node) (step, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		kind := query.StepKind(node.Value)
		switch kind {
		case query.KindSum, query.KindCount, query.KindAvg, query.KindMin, query.KindMax,
			query.KindDistinct, query.KindFlatten, query.KindUnwrap:
			return step{kind: kind}, nil
		case query.KindFilter:
			return step{kind: kind, cond: true}, nil
		}
		return step{}, qerr.Validation("unsupported step %q at line %d", node.Value, node.Line)

	case yaml.MappingNode:
		if len(node.Content) != 2 || node.Content[0].Value != string(query.KindFilter) {
			return step{}, qerr.Validation("expected {filter: condition} at line %d", node.Line)
		}
		cond, err := decodeCondition(node.Content[1])
		if err != nil {
			return step{}, err
		}
		if set, ok := cond.(value.Set); ok {
			cond = predicate.Func(set.Contains)
		}
		return step{kind: query.KindFilter, cond: cond}, nil
	}
	return step{}, qerr.Validation("unsupported step at line %d", node.Line)
}

// decodeCondition reads a scalar, a sequence (membership) or a {regex: ...}
// mapping.
func decodeCondition(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode condition: %w", err)
		}
		return scalar(v), nil

	case yaml.SequenceNode:
		vals := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			if child.Kind != yaml.ScalarNode {
				return nil, qerr.Validation("expected scalar at line %d", child.Line)
			}
			var v any
			if err := child.Decode(&v); err != nil {
				return nil, fmt.Errorf("decode condition: %w", err)
			}
			vals = append(vals, scalar(v))
		}
		return value.NewSet(vals...), nil

	case yaml.MappingNode:
		if len(node.Content) == 2 && node.Content[0].Value == "regex" {
			re, err := regexp.Compile(node.Content[1].Value)
			if err != nil {
				return nil, qerr.Validation("invalid regex at line %d: %v", node.Line, err)
			}
			return re, nil
		}
		return nil, qerr.Validation("expected {regex: pattern} at line %d", node.Line)

	case yaml.AliasNode:
		return decodeCondition(node.Alias)
	}
	return nil, qerr.Validation("unsupported condition at line %d", node.Line)
}

// scalar widens decoded YAML numbers to the store's types.
func scalar(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}

// Columns returns the decoded selection.
func (f *File) Columns() any { return f.columns }

// Open loads the sources into a new Select on st.
func (f *File) Open(ctx context.Context, st *store.Store) (*selector.Select, error) {
	if len(f.Sources) == 0 {
		return nil, qerr.Validation("query file has no sources")
	}
	sel, err := selector.New(st)
	if err != nil {
		return nil, err
	}
	for _, src := range f.Sources {
		if err := sel.LoadCSV(ctx, src); err != nil {
			sel.Close()
			return nil, err
		}
	}
	return sel, nil
}

// Query builds the described query bound to src.
func (f *File) Query(ctx context.Context, src query.Source) (*query.Query, error) {
	q, err := query.NewFrom(ctx, src, f.columns, f.where)
	if err != nil {
		return nil, err
	}
	for _, s := range f.steps {
		switch s.kind {
		case query.KindSum:
			q = q.Sum()
		case query.KindCount:
			q = q.Count()
		case query.KindAvg:
			q = q.Avg()
		case query.KindMin:
			q = q.Min()
		case query.KindMax:
			q = q.Max()
		case query.KindDistinct:
			q = q.Distinct()
		case query.KindFlatten:
			q = q.Flatten()
		case query.KindUnwrap:
			q = q.Unwrap()
		case query.KindFilter:
			q = q.Filter(s.cond)
		}
	}
	return q, nil
}

// ExecuteOptions returns the execution options the file asks for.
func (f *File) ExecuteOptions() []query.ExecuteOption {
	if f.Optimize != nil && !*f.Optimize {
		return []query.ExecuteOption{query.WithoutOptimization()}
	}
	return nil
}
