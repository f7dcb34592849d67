// Package aggregate implements the aggregate functions shared by the
// in-process pipeline and the SQL push-down path.
//
// Each function has a SQL spelling used by the store adapter and a pure
// implementation over an Iterator. The two agree on NULL handling, on the
// numeric cast applied by sum and avg, and on the cross-type ordering used
// by min and max.
package aggregate

import (
	"math"
	"strings"

	"github.com/roach88/squint/internal/qerr"
	"github.com/roach88/squint/internal/value"
)

// Iterator is a pull iterator over values.
type Iterator interface {
	Next() bool
	Value() any
	Err() error
}

// Func identifies an aggregate function.
type Func int

const (
	Sum Func = iota + 1
	Count
	Avg
	Min
	Max
	Distinct
)

var sqlNames = map[Func]string{
	Sum:      "SUM",
	Count:    "COUNT",
	Avg:      "AVG",
	Min:      "MIN",
	Max:      "MAX",
	Distinct: "DISTINCT",
}

// SQLName returns the SQL spelling of f.
func (f Func) SQLName() string { return sqlNames[f] }

// String returns the lower-case name of f.
func (f Func) String() string { return strings.ToLower(sqlNames[f]) }

// SQLExpr returns the aggregate expression over an already quoted column.
// With distinct set the aggregate only sees distinct values.
func (f Func) SQLExpr(col string, distinct bool) string {
	arg := col
	if distinct {
		arg = "DISTINCT " + col
	}
	if f == Sum {
		// Cast the total so both paths return a float.
		return "CAST(SUM(" + arg + ") AS REAL)"
	}
	return f.SQLName() + "(" + arg + ")"
}

// Parse resolves a SQL aggregate name (case-insensitive). Distinct is not
// an aggregate over a group and is rejected.
func Parse(name string) (Func, error) {
	upper := strings.ToUpper(name)
	for f, n := range sqlNames {
		if n == upper && f != Distinct {
			return f, nil
		}
	}
	return 0, qerr.Validation("unsupported aggregate function %q", name)
}

// Apply runs f over it.
func (f Func) Apply(it Iterator) (any, error) {
	switch f {
	case Sum:
		return SumOf(it)
	case Count:
		return CountOf(it)
	case Avg:
		return AvgOf(it)
	case Min:
		return MinOf(it)
	case Max:
		return MaxOf(it)
	}
	return nil, qerr.Type("%s is not a scalar aggregate", f)
}

// SumOf returns the float64 total of the non-null values, or nil when there
// are none. Text and blobs contribute their leading numeric prefix.
func SumOf(it Iterator) (any, error) {
	var k kahan
	n := 0
	for it.Next() {
		v := it.Value()
		if v == nil {
			continue
		}
		k.add(value.CastReal(v))
		n++
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return k.total(), nil
}

// CountOf returns the number of non-null values.
func CountOf(it Iterator) (any, error) {
	var n int64
	for it.Next() {
		if it.Value() != nil {
			n++
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return n, nil
}

// AvgOf returns the float64 mean of the non-null values, or nil when there
// are none.
func AvgOf(it Iterator) (any, error) {
	var k kahan
	n := 0
	for it.Next() {
		v := it.Value()
		if v == nil {
			continue
		}
		k.add(value.CastReal(v))
		n++
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return k.total() / float64(n), nil
}

// MinOf returns the smallest non-null value, or nil.
func MinOf(it Iterator) (any, error) { return extreme(it, -1) }

// MaxOf returns the largest non-null value, or nil.
func MaxOf(it Iterator) (any, error) { return extreme(it, 1) }

func extreme(it Iterator, sign int) (any, error) {
	var best any
	for it.Next() {
		v := it.Value()
		if v == nil {
			continue
		}
		if best == nil || value.Compare(v, best)*sign > 0 {
			best = v
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

// DistinctOf returns an iterator yielding the first occurrence of each
// value of it.
func DistinctOf(it Iterator) Iterator {
	return &distinct{src: it, seen: make(map[string]struct{})}
}

type distinct struct {
	src  Iterator
	seen map[string]struct{}
	cur  any
}

func (d *distinct) Next() bool {
	for d.src.Next() {
		v := d.src.Value()
		k := value.Key(v)
		if _, ok := d.seen[k]; ok {
			continue
		}
		d.seen[k] = struct{}{}
		d.cur = v
		return true
	}
	return false
}

func (d *distinct) Value() any { return d.cur }

func (d *distinct) Err() error { return d.src.Err() }

// kahan accumulates a compensated float sum.
type kahan struct {
	sum, c float64
}

func (k *kahan) add(x float64) {
	t := k.sum + x
	if math.Abs(k.sum) >= math.Abs(x) {
		k.c += (k.sum - t) + x
	} else {
		k.c += (x - t) + k.sum
	}
	k.sum = t
}

func (k *kahan) total() float64 { return k.sum + k.c }
