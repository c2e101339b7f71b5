package surface

import (
	"errors"
	"fmt"
)

// Sentinel kinds for errors.Is matching against a *RenderError.
var (
	ErrParse      = errors.New("parse error")
	ErrShape      = errors.New("shape error")
	ErrEmptyInput = errors.New("empty input")
)

// RenderError describes why raw text could not be turned into a surface.
// Line and Column are 1-based and zero when they do not apply.
type RenderError struct {
	Kind   error
	Line   int
	Column int
	Err    error
}

func (e *RenderError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%v at line %d, column %d: %v", e.Kind, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%v at line %d: %v", e.Kind, e.Line, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Is reports whether target is the error's kind.
func (e *RenderError) Is(target error) bool {
	return target == e.Kind
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// KindName returns a short stable identifier for the error kind, suitable for
// log fields and diagnostics rows.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrShape):
		return "shape"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}
