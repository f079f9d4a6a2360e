package framework

import (
	"fmt"
	"strings"
)

// RunError is the failure of a Runnable started by a Runner.
type RunError struct {
	// Name is the Runnable's name, or its start index if unnamed.
	Name string
	Err  error
}

// Error implements error.
func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the Runnable's error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// AggregatedError aggregates multiple errors, e.g. from closing all
// peripherals of a node.
type AggregatedError struct {
	Errors []error
}

// Error implements error. A single error is reported as is.
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes aggregated errors to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Add adds errors to be aggregated. nil is skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil if nothing was added.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
