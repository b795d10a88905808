package recsrc

import (
	"fmt"
	"math"
	"strconv"
)

// Record is one loaded row. Field values keep the type the backing
// format produced (string for CSV, int64/float64/string/[]byte for
// SQLite, YAML scalars for YAML); the typed accessors convert.
type Record struct {
	names  []string
	values map[string]any
}

// NewRecord builds a record from parallel name/value slices.
func NewRecord(names []string, values []any) *Record {
	r := &Record{
		names:  make([]string, len(names)),
		values: make(map[string]any, len(names)),
	}
	copy(r.names, names)
	for i, n := range names {
		if i < len(values) {
			r.values[n] = values[i]
		} else {
			r.values[n] = nil
		}
	}
	return r
}

// Names returns the field names in source order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Field returns the raw value of name.
func (r *Record) Field(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Float returns name as a float64.
func (r *Record) Float(name string) (float64, error) {
	v, ok := r.values[name]
	if !ok {
		return 0, &FieldError{Name: name, Err: ErrNoField}
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, &FieldError{Name: name, Err: err}
		}
		return f, nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, &FieldError{Name: name, Err: err}
		}
		return f, nil
	default:
		return 0, &FieldError{Name: name, Err: fmt.Errorf("cannot convert %T to float", v)}
	}
}

// Int returns name as an int64. Floats are accepted when integral.
func (r *Record) Int(name string) (int64, error) {
	v, ok := r.values[name]
	if !ok {
		return 0, &FieldError{Name: name, Err: ErrNoField}
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, &FieldError{Name: name, Err: fmt.Errorf("%d overflows int64", x)}
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, &FieldError{Name: name, Err: fmt.Errorf("%v is not an integer", x)}
		}
		return int64(x), nil
	case string:
		return parseIntField(name, x)
	case []byte:
		return parseIntField(name, string(x))
	default:
		return 0, &FieldError{Name: name, Err: fmt.Errorf("cannot convert %T to int", v)}
	}
}

// Text returns name formatted as text.
func (r *Record) Text(name string) (string, error) {
	v, ok := r.values[name]
	if !ok {
		return "", &FieldError{Name: name, Err: ErrNoField}
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(x), nil
	}
}

func parseIntField(name, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &FieldError{Name: name, Err: err}
	}
	return n, nil
}
