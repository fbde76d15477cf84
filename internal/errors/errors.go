// Package errors provides the structured error types used across dc4ds.
// Every error carries a category and a code so callers can tell a bad
// rule configuration apart from a missing source or a failing predicate.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the stage that raised them.
type ErrorCategory string

const (
	ErrCategoryConfiguration ErrorCategory = "CONFIG"
	ErrCategorySource        ErrorCategory = "SOURCE"
	ErrCategoryDialect       ErrorCategory = "DIALECT"
	ErrCategoryPredicate     ErrorCategory = "PREDICATE"
	ErrCategoryShape         ErrorCategory = "SHAPE"
)

// Error codes for each category.
const (
	// Configuration codes
	CodeUnknownColumn      = "UNKNOWN_COLUMN"
	CodeOverlappingColumns = "OVERLAPPING_COLUMNS"
	CodeEmptyProjection    = "EMPTY_PROJECTION"
	CodeInvalidRule        = "INVALID_RULE"

	// Source codes
	CodeSourceNotFound = "SOURCE_NOT_FOUND"
	CodeSourceRead     = "SOURCE_READ"

	// Dialect codes
	CodeUnparsable = "UNPARSABLE"

	// Predicate codes
	CodePredicateFailed = "PREDICATE_FAILED"

	// Shape codes
	CodeRaggedRow = "RAGGED_ROW"
)

// DCError is the structured error type used throughout the toolkit.
type DCError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *DCError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *DCError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
// A target with an empty code matches any error of the same category.
func (e *DCError) Is(target error) bool {
	var t *DCError
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == "" {
		return e.Category == t.Category
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithDetail attaches a key/value pair and returns the error for chaining.
func (e *DCError) WithDetail(key string, value interface{}) *DCError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Category sentinels for errors.Is checks.
var (
	ErrConfiguration       = &DCError{Category: ErrCategoryConfiguration}
	ErrSourceNotFound      = &DCError{Category: ErrCategorySource, Code: CodeSourceNotFound}
	ErrUnparsableDialect   = &DCError{Category: ErrCategoryDialect, Code: CodeUnparsable}
	ErrPredicateEvaluation = &DCError{Category: ErrCategoryPredicate}
	ErrShape               = &DCError{Category: ErrCategoryShape}
)

// NewConfigurationError reports a constraint that does not fit the table it is used with.
func NewConfigurationError(code, message string) *DCError {
	return &DCError{Category: ErrCategoryConfiguration, Code: code, Message: message}
}

// UnknownColumn reports a column reference that the table cannot resolve.
func UnknownColumn(column string) *DCError {
	return NewConfigurationError(CodeUnknownColumn, fmt.Sprintf("column %q not found in table", column)).
		WithDetail("column", column)
}

// NewSourceNotFoundError reports a data source that cannot be located or opened.
func NewSourceNotFoundError(source string, cause error) *DCError {
	return &DCError{
		Category: ErrCategorySource,
		Code:     CodeSourceNotFound,
		Message:  fmt.Sprintf("source %q not found", source),
		Details:  map[string]interface{}{"source": source},
		Cause:    cause,
	}
}

// NewSourceReadError reports an I/O failure while reading a located source.
func NewSourceReadError(source string, cause error) *DCError {
	return &DCError{
		Category: ErrCategorySource,
		Code:     CodeSourceRead,
		Message:  fmt.Sprintf("reading source %q", source),
		Cause:    cause,
	}
}

// NewUnparsableDialectError reports that no dialect, the fallback included, could parse the input.
func NewUnparsableDialectError(source string, cause error) *DCError {
	return &DCError{
		Category: ErrCategoryDialect,
		Code:     CodeUnparsable,
		Message:  fmt.Sprintf("no usable dialect for %q", source),
		Cause:    cause,
	}
}

// NewPredicateError wraps an error raised by user predicate logic on a given row.
func NewPredicateError(row int, cause error) *DCError {
	return &DCError{
		Category: ErrCategoryPredicate,
		Code:     CodePredicateFailed,
		Message:  fmt.Sprintf("predicate failed on row %d", row),
		Details:  map[string]interface{}{"row": row},
		Cause:    cause,
	}
}

// NewRaggedRowError reports a row whose arity differs from the column list.
func NewRaggedRowError(row, got, want int) *DCError {
	return &DCError{
		Category: ErrCategoryShape,
		Code:     CodeRaggedRow,
		Message:  fmt.Sprintf("row %d has %d fields, expected %d", row, got, want),
		Details:  map[string]interface{}{"row": row, "got": got, "want": want},
	}
}
