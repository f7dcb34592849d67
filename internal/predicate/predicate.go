// Package predicate turns filter values into matchers.
//
// A filter value may be a Matcher, a func(any) bool, a *regexp.Regexp, the
// boolean true (match truthy values) or false (match falsy values). Any
// other value matches by equality.
package predicate

import (
	"regexp"

	"github.com/roach88/squint/internal/value"
)

// Matcher decides whether a value satisfies a condition.
type Matcher interface {
	Match(v any) bool
}

// Func adapts an ordinary function to Matcher.
type Func func(v any) bool

// Match calls f(v).
func (f Func) Match(v any) bool { return f(v) }

// For returns the matcher for a filter value.
func For(v any) Matcher {
	switch x := v.(type) {
	case Matcher:
		return x
	case func(any) bool:
		return Func(x)
	case *regexp.Regexp:
		return regexpMatcher{re: x}
	case bool:
		return truthMatcher{want: x}
	}
	return equalMatcher{key: value.Key(v)}
}

// IsPredicate reports whether v is matched by something other than
// equality. The store adapter turns such values into SQL functions.
func IsPredicate(v any) bool {
	switch v.(type) {
	case Matcher, func(any) bool, *regexp.Regexp, bool:
		return true
	}
	return false
}

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) Match(v any) bool {
	switch x := v.(type) {
	case string:
		return m.re.MatchString(x)
	case []byte:
		return m.re.Match(x)
	}
	return false
}

type truthMatcher struct {
	want bool
}

func (m truthMatcher) Match(v any) bool { return value.Truthy(v) == m.want }

type equalMatcher struct {
	key string
}

func (m equalMatcher) Match(v any) bool { return value.Key(v) == m.key }
