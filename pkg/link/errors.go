package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNoise indicates a line that doesn't carry the expected marker.
	// It's not an error condition on the link, just something to drop.
	ErrNoise = errors.New("not a frame")
)

// ParseError describes a line that looked like a frame but could not be
// decoded.
type ParseError struct {
	Line  string
	Field string
	Err   error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: field %s: %v", e.Line, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errMissingMarker = errors.New("missing marker")
	errTooShort      = errors.New("line too short")
	errBadEncoding   = errors.New("invalid utf-8")
	errOutOfRange    = errors.New("out of range")
)
