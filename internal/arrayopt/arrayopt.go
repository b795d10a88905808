// Package arrayopt implements a fixed-size numeric array command-line
// option with optional sorting and inclusive range checks.
//
// One Spec drives both parsing and help text, so the documented bounds
// cannot drift from the enforced ones:
//
//	spec := arrayopt.Spec{Size: 2, Sort: true, Min: arrayopt.Bound(0), Max: arrayopt.Bound(1000)}
//	win, err := arrayopt.Define(cmd.Flags(), "ewindow", "", "`E1,E2` energy window in keV", spec, []float64{0, 500})
//
// renders in --help as
//
//	--ewindow E1,E2   energy window in keV (min: 0, max: 1000) (default 0,500)
//
// Values are given as one token, separated by commas and/or whitespace.
// Validation runs before sorting so error messages quote the values as
// the user typed them.
package arrayopt

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Spec declares the shape of an array option.
type Spec struct {
	// Size is the exact number of elements required. Must be >= 1.
	Size int
	// Sort stores the values in ascending order after validation.
	Sort bool
	// Min and Max are optional inclusive bounds.
	Min *float64
	Max *float64
}

// Bound returns a pointer to v, for use as Spec.Min or Spec.Max.
func Bound(v float64) *float64 {
	return &v
}

// Validate checks the spec itself.
func (s Spec) Validate() error {
	if s.Size < 1 {
		return &SpecError{Message: fmt.Sprintf("size must be at least 1, got %d", s.Size)}
	}
	if s.Min != nil && math.IsNaN(*s.Min) {
		return &SpecError{Message: "min bound is NaN"}
	}
	if s.Max != nil && math.IsNaN(*s.Max) {
		return &SpecError{Message: "max bound is NaN"}
	}
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		return &SpecError{Message: fmt.Sprintf("min bound %s exceeds max bound %s", formatFloat(*s.Min), formatFloat(*s.Max))}
	}
	return nil
}

// Describe renders the configured bounds for help text, e.g.
// "(min: 0, max: 1000)". Returns "" when no bound is set.
func (s Spec) Describe() string {
	var parts []string
	if s.Min != nil {
		parts = append(parts, "min: "+formatFloat(*s.Min))
	}
	if s.Max != nil {
		parts = append(parts, "max: "+formatFloat(*s.Max))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Usage appends Describe to the caller's usage text.
func (s Spec) Usage(usage string) string {
	d := s.Describe()
	if d == "" {
		return usage
	}
	if usage == "" {
		return d
	}
	return usage + " " + d
}

// Parse converts raw into a validated (and, if requested, sorted) array.
func (s Spec) Parse(raw string) ([]float64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != s.Size {
		return nil, &ParseError{
			Input:   raw,
			Message: fmt.Sprintf("expected %d values, got %d", s.Size, len(fields)),
		}
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) {
			return nil, &ParseError{
				Input:   raw,
				Message: fmt.Sprintf("element %d (%q) is not a number", i+1, f),
			}
		}
		values[i] = v
	}

	if err := s.check(values); err != nil {
		return nil, err
	}

	if s.Sort {
		slices.Sort(values)
	}
	return values, nil
}

// check applies the bounds to values in input order.
func (s Spec) check(values []float64) error {
	for _, v := range values {
		if s.Min != nil && v < *s.Min {
			return &RangeError{Value: v, Bound: *s.Min, Kind: BelowMin}
		}
		if s.Max != nil && v > *s.Max {
			return &RangeError{Value: v, Bound: *s.Max, Kind: AboveMax}
		}
	}
	return nil
}

// Value is a pflag.Value holding an array parsed according to a Spec.
type Value struct {
	spec   Spec
	values []float64
}

var _ pflag.Value = (*Value)(nil)

// New validates spec and defaults and returns a Value holding the defaults.
func New(spec Spec, defaults []float64) (*Value, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(defaults) != spec.Size {
		return nil, &SpecError{Message: fmt.Sprintf("default has %d values, size is %d", len(defaults), spec.Size)}
	}
	if err := spec.check(defaults); err != nil {
		return nil, &SpecError{Message: "default: " + err.Error()}
	}

	values := slices.Clone(defaults)
	if spec.Sort {
		slices.Sort(values)
	}
	return &Value{spec: spec, values: values}, nil
}

// Define creates a Value and registers it on fs. The bounds are appended
// to usage so --help documents them.
func Define(fs *pflag.FlagSet, name, shorthand, usage string, spec Spec, defaults []float64) (*Value, error) {
	v, err := New(spec, defaults)
	if err != nil {
		return nil, fmt.Errorf("flag --%s: %w", name, err)
	}
	fs.VarP(v, name, shorthand, spec.Usage(usage))
	return v, nil
}

// Set parses raw and replaces the stored values. On error the stored
// values are left unchanged.
func (v *Value) Set(raw string) error {
	values, err := v.spec.Parse(raw)
	if err != nil {
		return err
	}
	v.values = values
	return nil
}

// String renders the values comma-separated, e.g. "0,500".
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	parts := make([]string, len(v.values))
	for i, x := range v.values {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, ",")
}

// Type names the value kind for pflag.
func (v *Value) Type() string {
	return "floats"
}

// Values returns a copy of the stored array.
func (v *Value) Values() []float64 {
	return slices.Clone(v.values)
}

// Spec returns the declaration this value was built from.
func (v *Value) Spec() Spec {
	return v.spec
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
