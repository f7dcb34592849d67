package value

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Group is the coarse ordering class of a value.
type Group uint8

const (
	GroupNull Group = iota
	GroupNumeric
	GroupText
	GroupBlob
	GroupOther
)

// SortKey is the total-order key of a value: values in a lower group sort
// first, values in the same group compare by Payload. Payload is int64 or
// float64 for GroupNumeric, string for GroupText and GroupOther, and []byte
// for GroupBlob.
type SortKey struct {
	Group   Group
	Payload any
}

// SortKeyOf returns the sort key of v.
func SortKeyOf(v any) SortKey {
	if v == nil {
		return SortKey{Group: GroupNull}
	}
	if n, ok := asNumber(v); ok {
		return SortKey{Group: GroupNumeric, Payload: n}
	}
	switch x := v.(type) {
	case string:
		return SortKey{Group: GroupText, Payload: x}
	case []byte:
		return SortKey{Group: GroupBlob, Payload: x}
	}
	return SortKey{Group: GroupOther, Payload: Repr(v)}
}

// Compare returns -1, 0 or +1 as k sorts before, with or after o.
func (k SortKey) Compare(o SortKey) int {
	if c := cmp.Compare(k.Group, o.Group); c != 0 {
		return c
	}
	switch k.Group {
	case GroupNull:
		return 0
	case GroupNumeric:
		return compareNumbers(k.Payload, o.Payload)
	case GroupBlob:
		return bytes.Compare(k.Payload.([]byte), o.Payload.([]byte))
	default:
		return strings.Compare(k.Payload.(string), o.Payload.(string))
	}
}

// Compare orders a and b the way SQLite orders mixed-type values.
func Compare(a, b any) int {
	return SortKeyOf(a).Compare(SortKeyOf(b))
}

// asNumber returns v as int64 or float64 when v is numeric (bool included).
func asNumber(v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		return fromUint(uint64(x)), true
	case uint64:
		return fromUint(x), true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	}
	return nil, false
}

func fromUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return float64(u)
}

func compareNumbers(a, b any) int {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	switch {
	case aInt && bInt:
		return cmp.Compare(ai, bi)
	case aInt:
		return compareIntFloat(ai, b.(float64))
	case bInt:
		return -compareIntFloat(bi, a.(float64))
	default:
		return cmp.Compare(a.(float64), b.(float64))
	}
}

func compareIntFloat(i int64, f float64) int {
	if c := cmp.Compare(float64(i), f); c != 0 {
		return c
	}
	if f >= -(1<<63) && f < 1<<63 {
		return cmp.Compare(i, int64(f))
	}
	return 0
}

// integral reports whether f holds an exact int64.
func integral(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Key encodes v into a string usable as a hash key. Equal numbers share a
// key regardless of their Go type.
func Key(v any) string {
	var b strings.Builder
	writeKey(&b, v)
	return b.String()
}

// Equal reports whether a and b have the same Key.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}

func writeKey(b *strings.Builder, v any) {
	if v == nil {
		b.WriteString("n;")
		return
	}
	if n, ok := asNumber(v); ok {
		writeNumberKey(b, n)
		return
	}
	switch x := v.(type) {
	case string:
		writeSized(b, 's', x)
	case []byte:
		writeSized(b, 'b', string(x))
	case Tuple:
		writeSeqKey(b, 't', x)
	case []any:
		writeSeqKey(b, 't', x)
	case Set:
		keys := make([]string, len(x))
		for i, m := range x {
			keys[i] = Key(m)
		}
		slices.Sort(keys)
		b.WriteString("S" + strconv.Itoa(len(keys)) + "(")
		for _, k := range keys {
			b.WriteString(k)
		}
		b.WriteByte(')')
	case *Map:
		entries := make([]string, 0, x.Len())
		for _, it := range x.Items() {
			entries = append(entries, Key(it.Key)+Key(it.Value))
		}
		slices.Sort(entries)
		b.WriteString("m" + strconv.Itoa(len(entries)) + "(")
		for _, e := range entries {
			b.WriteString(e)
		}
		b.WriteByte(')')
	default:
		writeSized(b, 'o', fmt.Sprintf("%T:%v", v, v))
	}
}

func writeNumberKey(b *strings.Builder, n any) {
	switch x := n.(type) {
	case int64:
		b.WriteString("i" + strconv.FormatInt(x, 10) + ";")
	case float64:
		if i, ok := integral(x); ok {
			b.WriteString("i" + strconv.FormatInt(i, 10) + ";")
			return
		}
		b.WriteString("f" + strconv.FormatFloat(x, 'g', -1, 64) + ";")
	}
}

func writeSized(b *strings.Builder, tag byte, s string) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

func writeSeqKey(b *strings.Builder, tag byte, vals []any) {
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(vals)))
	b.WriteByte('(')
	for _, v := range vals {
		writeKey(b, v)
	}
	b.WriteByte(')')
}
