package value

import (
	"strconv"
	"strings"
)

// CastReal converts v to float64 the way SQLite evaluates CAST(v AS REAL).
// Numbers convert by value. Text and blobs convert their longest leading
// numeric prefix (after leading whitespace); without one the result is 0.
func CastReal(v any) float64 {
	if n, ok := asNumber(v); ok {
		if i, isInt := n.(int64); isInt {
			return float64(i)
		}
		return n.(float64)
	}
	switch x := v.(type) {
	case string:
		return parseRealPrefix(x)
	case []byte:
		return parseRealPrefix(string(x))
	}
	return 0
}

func parseRealPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}
	// Out of range prefixes parse to ±Inf with a range error, which is
	// what SQLite yields too.
	f, _ := strconv.ParseFloat(s[:end], 64)
	return f
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Truthy reports whether v counts as true: non-zero numbers, non-empty
// text, blobs and collections, and any other non-nil value.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if n, ok := asNumber(v); ok {
		switch x := n.(type) {
		case int64:
			return x != 0
		case float64:
			return x != 0
		}
	}
	switch x := v.(type) {
	case string:
		return x != ""
	case []byte:
		return len(x) > 0
	case Tuple:
		return len(x) > 0
	case Set:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case *Map:
		return x.Len() > 0
	}
	return true
}
