package query

import (
	"reflect"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/roach88/squint/internal/selection"
	"github.com/roach88/squint/internal/value"
)

const maxSourceRepr = 70

// Explain describes the data source and the execution plan. When optimize
// is true and a rewrite applies, the optimized plan is shown and marked as
// such. Unbound queries are explained as if run against a Source.
func (q *Query) Explain(optimize bool) (string, error) {
	selectable := !q.fromObject
	plan, err := q.executionPlan(selectable)
	if err != nil {
		return "", err
	}

	marker := ""
	if optimize {
		if optimized, ok := Optimize(plan); ok {
			plan = optimized
			marker = " (optimized)"
		}
	}

	var b strings.Builder
	b.WriteString("Data Source:\n  ")
	b.WriteString(q.sourceString())
	b.WriteString("\nExecution Plan" + marker + ":\n")
	for _, step := range plan {
		b.WriteString("  " + step.String() + "\n")
	}
	return b.String(), nil
}

// String renders the step as "function, (args), {kwds}".
func (s Step) String() string {
	return reprArg(s.Function) + ", (" + reprArgs(s.Args) + "), {" + strings.Join(reprKwds(s.Kwds), ", ") + "}"
}

func (q *Query) sourceString() string {
	var s string
	switch {
	case q.source != nil:
		s = q.source.String()
	case q.fromObject:
		s = value.Repr(q.object)
	default:
		return "<none given> (assuming Select object)"
	}
	if len(s) > maxSourceRepr {
		s = s[:maxSourceRepr-3] + "..."
	}
	return s
}

func reprArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = reprArg(a)
	}
	return strings.Join(parts, ", ")
}

// reprKwds renders keyword arguments as key=value in key order.
func reprKwds(kwds map[string]any) []string {
	keys := Where(kwds).Fields()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + reprArg(kwds[k])
	}
	return parts
}

func reprArg(v any) string {
	switch x := v.(type) {
	case *Function:
		return x.Name
	case token:
		return x.String()
	case selection.Spec:
		return x.String()
	case *regexp.Regexp:
		return "regexp(" + strconv.Quote(x.String()) + ")"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Func {
		if rv.IsNil() {
			return "None"
		}
		return funcName(rv)
	}
	return value.Repr(v)
}

// funcName returns the package-qualified name of a function, such as
// strings.ToUpper.
func funcName(rv reflect.Value) string {
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
