package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeNotFound is returned when an operation names a shape the document does not hold.
	ErrShapeNotFound = errors.New("shape not found")
	// ErrNotMarker is returned when a marker-only operation targets another kind of shape.
	ErrNotMarker = errors.New("shape is not a marker")
	// ErrInvalidShape is returned when a shape violates its geometry or style invariants.
	ErrInvalidShape = errors.New("invalid shape")
)

// ParseError reports malformed interchange input. The document the caller
// was about to replace is never modified when one is returned.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse geojson: %s: %v", e.Msg, e.Err)
	}
	return "parse geojson: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidShape, fmt.Sprintf(format, args...))
}
