// Package params loads per-analysis parameters from a CUE file.
//
// A parameter file is a single CUE struct whose fields are concrete
// scalars:
//
//	bins:         200
//	max_accepted: 5000
//	label:        "run-7"
//
// CUE constraints and defaults are evaluated before the values are read,
// so `bins: int & >0 | *100` is a valid way to declare a field.
package params

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// LoadError reports a parameter file that could not be read, compiled or
// converted. Pos is set when CUE knows where the problem is.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, msg)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError returns true if err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// ErrWrongType is wrapped by the typed getters when a parameter exists
// with an incompatible kind.
var ErrWrongType = errors.New("wrong type")

// Set is an immutable collection of named scalar parameters.
type Set struct {
	source string
	values map[string]any
	order  []string
}

// Empty returns a Set with no parameters. Every getter returns its default.
func Empty() *Set {
	return &Set{values: map[string]any{}}
}

// Load reads and evaluates the CUE file at path.
func Load(path string) (*Set, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "read parameter file", Err: err}
	}
	return Parse(path, src)
}

// Parse evaluates src as a CUE parameter file. filename is used in
// positions and error messages.
func Parse(filename string, src []byte) (*Set, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(filename, "compile", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(filename, "evaluate", err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &LoadError{Path: filename, Message: fmt.Sprintf("top level must be a struct, got %s", v.IncompleteKind())}
	}

	s := &Set{source: filename, values: map[string]any{}}
	iter, err := v.Fields()
	if err != nil {
		return nil, cueLoadError(filename, "iterate fields", err)
	}
	for iter.Next() {
		name := iter.Label()
		field, _ := iter.Value().Default()
		val, err := scalar(field)
		if err != nil {
			return nil, &LoadError{Path: filename, Message: fmt.Sprintf("parameter %q", name), Pos: field.Pos(), Err: err}
		}
		s.values[name] = val
		s.order = append(s.order, name)
	}
	return s, nil
}

// cueLoadError converts a CUE error, keeping the first position it
// carries.
func cueLoadError(path, what string, err error) *LoadError {
	le := &LoadError{Path: path, Message: what, Err: err}
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			le.Pos = pos
			break
		}
	}
	return le
}

func scalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	default:
		return nil, fmt.Errorf("must be a number, string or bool, got %s", v.Kind())
	}
}

// Source returns the file the Set was loaded from, or "" for Empty.
func (s *Set) Source() string { return s.source }

// Names returns the parameter names in file order.
func (s *Set) Names() []string { return slices.Clone(s.order) }

// Has reports whether name is set.
func (s *Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Map returns a copy of the parameters, suitable for storing with a run.
func (s *Set) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// CheckKnown returns an error naming every parameter not in known.
// Analyses call it in Setup to catch misspelled parameter names.
func (s *Set) CheckKnown(known ...string) error {
	var unknown []string
	for _, name := range s.order {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("unknown parameters in %s: %s (known: %s)",
		s.source, strings.Join(unknown, ", "), strings.Join(known, ", "))
}

// Float returns name as a float64, or def if it is not set. Integers are
// accepted.
func (s *Set) Float(name string, def float64) (float64, error) {
	v, ok := s.values[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	}
	return def, typeError(name, "number", v)
}

// Int returns name as an int64, or def if it is not set. Floats are
// accepted when integral.
func (s *Set) Int(name string, def int64) (int64, error) {
	v, ok := s.values[name]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x), nil
		}
	}
	return def, typeError(name, "integer", v)
}

// String returns name as a string, or def if it is not set.
func (s *Set) String(name, def string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return def, nil
	}
	if x, ok := v.(string); ok {
		return x, nil
	}
	return def, typeError(name, "string", v)
}

// Bool returns name as a bool, or def if it is not set.
func (s *Set) Bool(name string, def bool) (bool, error) {
	v, ok := s.values[name]
	if !ok {
		return def, nil
	}
	if x, ok := v.(bool); ok {
		return x, nil
	}
	return def, typeError(name, "bool", v)
}

func typeError(name, want string, got any) error {
	return fmt.Errorf("parameter %q: %w: want %s, got %T (%v)", name, ErrWrongType, want, got, got)
}
