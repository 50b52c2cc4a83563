// Package errors defines the error taxonomy shared by the epidem analysis
// engines and the HTTP error rendering used by the transport layer.
//
// Two error kinds abort an analytic call:
//
//   - FormatError: a date value that violates the strict YYYY-MM-DD contract
//   - ConfigurationError: an unknown column reference or an invalid enum
//     option (frequency, rolling kind, output shape)
//
// Both abort synchronously and produce no partial result. Per-row data
// problems (unparseable dates inside a line list, missing cells) are never
// errors; the engines track them as first-class missing-data outcomes.
package errors

import (
	"errors"
	"fmt"
)

// FormatError reports a malformed date value. The Format field names the
// expected layout so callers can surface it verbatim.
type FormatError struct {
	Value  string
	Format string
}

// Error implements the error interface
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid date %q: expected format %s", e.Value, e.Format)
}

// NewFormatError creates a FormatError for the canonical YYYY-MM-DD contract
func NewFormatError(value string) *FormatError {
	return &FormatError{Value: value, Format: "YYYY-MM-DD"}
}

// ConfigurationError reports an invalid analysis configuration: a referenced
// column that does not exist in the input, or an unrecognized enum value.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a ConfigurationError for the given field
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// UnknownColumnError creates a ConfigurationError for a column reference
// that does not exist in the input table.
func UnknownColumnError(field, column string) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: fmt.Sprintf("column %q not found in input", column),
	}
}

// IsFormatError reports whether err is (or wraps) a FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
