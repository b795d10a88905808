package arrayopt

import (
	"errors"
	"fmt"
)

// ParseError reports a value list with the wrong element count or a
// non-numeric element.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s in %q", e.Message, e.Input)
}

// BoundKind says which bound a RangeError violated.
type BoundKind int

const (
	BelowMin BoundKind = iota
	AboveMax
)

// RangeError reports an element outside the configured bounds. Value is
// the element as the user gave it.
type RangeError struct {
	Value float64
	Bound float64
	Kind  BoundKind
}

func (e *RangeError) Error() string {
	if e.Kind == BelowMin {
		return fmt.Sprintf("value %s is below min %s", formatFloat(e.Value), formatFloat(e.Bound))
	}
	return fmt.Sprintf("value %s is above max %s", formatFloat(e.Value), formatFloat(e.Bound))
}

// SpecError reports an invalid declaration (bad size, inverted bounds,
// default outside bounds). It is raised when the option is defined, not
// when it is parsed.
type SpecError struct {
	Message string
}

func (e *SpecError) Error() string {
	return "invalid array option: " + e.Message
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRangeError returns true if err is or wraps a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}
