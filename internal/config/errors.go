package config

import "fmt"

// ValidationError is a single field-level problem surfaced by Validate.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects every problem found during a single Validate
// pass, so a user sees all of them instead of fixing one field at a time.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no error"
	}

	msg := fmt.Sprintf("config validation failed (%d %s):\n", len(e.Errors), pluralize(len(e.Errors)))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return msg
}

func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: message})
}

func (e *ValidationErrors) Merge(other ValidationErrors) {
	e.Errors = append(e.Errors, other.Errors...)
}

func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func pluralize(n int) string {
	if n == 1 {
		return "error"
	}
	return "errors"
}

var ErrConfigNotFound = fmt.Errorf("config not found")

// ErrConfigLoadFailed wraps an underlying I/O or parse failure with the
// path that was being loaded, for a message that points straight at the
// offending file.
type ErrConfigLoadFailed struct {
	Path  string
	Cause error
}

func (e *ErrConfigLoadFailed) Error() string {
	return fmt.Sprintf("failed to load config from %s: %v", e.Path, e.Cause)
}

func (e *ErrConfigLoadFailed) Unwrap() error {
	return e.Cause
}
