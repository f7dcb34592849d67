// Package qerr defines the structured error type shared by the query layer.
package qerr

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a failure detected while building or running a query.
//
// Errors fall into three categories:
//   - Validation: a selection, filter or call is malformed
//   - Lookup: a referenced field does not exist in the data source
//   - Type: an operation was applied to a value it cannot handle
//
// Error carries structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Fields names the fields involved (missing fields for lookup errors).
	Fields []string

	// Source describes the data source, when known.
	Source string
}

// Code categorizes query errors.
type Code string

const (
	// CodeValidation indicates a malformed selection, filter or argument.
	CodeValidation Code = "VALIDATION"

	// CodeLookup indicates a field that is not present in the data source.
	CodeLookup Code = "LOOKUP"

	// CodeType indicates an operation applied to an unsupported value.
	CodeType Code = "TYPE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (source=%s)", e.Code, e.Message, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Type returns a type error with a formatted message.
func Type(format string, args ...any) *Error {
	return &Error{Code: CodeType, Message: fmt.Sprintf(format, args...)}
}

// Lookup returns a lookup error naming every missing field.
func Lookup(missing []string, source string) *Error {
	quoted := make([]string, len(missing))
	for i, name := range missing {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return &Error{
		Code:    CodeLookup,
		Message: strings.Join(quoted, ", ") + " not found",
		Fields:  append([]string(nil), missing...),
		Source:  source,
	}
}

// IsValidation returns true if err is (or wraps) a validation error.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsLookup returns true if err is (or wraps) a lookup error.
func IsLookup(err error) bool { return hasCode(err, CodeLookup) }

// IsType returns true if err is (or wraps) a type error.
func IsType(err error) bool { return hasCode(err, CodeType) }

func hasCode(err error, code Code) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}
