// Package param describes adjustable operator configuration.
//
// A Spec declares one field of an operator type: its kind, its bounds and its
// default. Specs are plain values; a Set built from them validates them once and
// then holds the current value of every field for a single operator instance.
package param

import (
	"math"
	"reflect"
)

// Kind is the value kind of a parameter.
type Kind string

const (
	KindInt    Kind = "int"
	KindDouble Kind = "double"
	KindEnum   Kind = "enum"
	KindBool   Kind = "bool"
)

// Spec describes one configurable field of an operator type.
type Spec interface {
	// Key returns the parameter name.
	Key() string
	// Kind returns the value kind.
	Kind() Kind
	// DefaultValue returns the value a fresh instance starts with.
	DefaultValue() any
	// Validate checks the spec itself.
	Validate() error
	// Check normalises v to the kind's Go type and validates it against the spec.
	Check(v any) (any, error)
}

// Int is an integer parameter bounded by [Lower, Upper].
type Int struct {
	Name    string
	Lower   int
	Upper   int
	Step    int
	Default int
}

func (s Int) Key() string       { return s.Name }
func (s Int) Kind() Kind        { return KindInt }
func (s Int) DefaultValue() any { return s.Default }

func (s Int) Validate() error {
	switch {
	case s.Name == "":
		return &InvalidSpecError{Reason: "name must be set"}
	case s.Step <= 0:
		return &InvalidSpecError{Param: s.Name, Reason: "step size must be greater than 0"}
	case s.Lower > s.Upper:
		return &InvalidSpecError{Param: s.Name, Reason: "lower bound is greater than upper bound"}
	case s.Default < s.Lower || s.Default > s.Upper:
		return &InvalidSpecError{Param: s.Name, Reason: "default is out of bounds"}
	}

	return nil
}

func (s Int) Check(v any) (any, error) {
	n, ok := toInt(v)
	if !ok {
		return nil, &InvalidParameterValueError{Param: s.Name, Value: v, Reason: "expected an integer", Err: ErrWrongType}
	}

	if n < s.Lower {
		return nil, invalidValue(s.Name, v, "below lower bound %d", s.Lower)
	}

	if n > s.Upper {
		return nil, invalidValue(s.Name, v, "above upper bound %d", s.Upper)
	}

	return n, nil
}

// Double is a floating point parameter bounded by [Lower, Upper].
type Double struct {
	Name    string
	Lower   float64
	Upper   float64
	Step    float64
	Default float64
}

func (s Double) Key() string       { return s.Name }
func (s Double) Kind() Kind        { return KindDouble }
func (s Double) DefaultValue() any { return s.Default }

func (s Double) Validate() error {
	switch {
	case s.Name == "":
		return &InvalidSpecError{Reason: "name must be set"}
	case !finite(s.Lower) || !finite(s.Upper) || !finite(s.Step) || !finite(s.Default):
		return &InvalidSpecError{Param: s.Name, Reason: "bounds, step and default must be finite"}
	case s.Step <= 0:
		return &InvalidSpecError{Param: s.Name, Reason: "step size must be greater than 0"}
	case s.Lower > s.Upper:
		return &InvalidSpecError{Param: s.Name, Reason: "lower bound is greater than upper bound"}
	case s.Default < s.Lower || s.Default > s.Upper:
		return &InvalidSpecError{Param: s.Name, Reason: "default is out of bounds"}
	}

	return nil
}

func (s Double) Check(v any) (any, error) {
	f, ok := toFloat(v)
	if !ok {
		return nil, &InvalidParameterValueError{Param: s.Name, Value: v, Reason: "expected a number", Err: ErrWrongType}
	}

	if math.IsNaN(f) {
		return nil, invalidValue(s.Name, v, "not a number")
	}

	if f < s.Lower {
		return nil, invalidValue(s.Name, v, "below lower bound %g", s.Lower)
	}

	if f > s.Upper {
		return nil, invalidValue(s.Name, v, "above upper bound %g", s.Upper)
	}

	return f, nil
}

// Enum is a string parameter restricted to an ordered set of values.
type Enum struct {
	Name    string
	Default string
	Values  []string
}

func (s Enum) Key() string       { return s.Name }
func (s Enum) Kind() Kind        { return KindEnum }
func (s Enum) DefaultValue() any { return s.Default }

func (s Enum) Validate() error {
	if s.Name == "" {
		return &InvalidSpecError{Reason: "name must be set"}
	}

	if len(s.Values) == 0 {
		return &InvalidSpecError{Param: s.Name, Reason: "possible values must not be empty"}
	}

	seen := make(map[string]struct{}, len(s.Values))
	for _, v := range s.Values {
		if _, ok := seen[v]; ok {
			return &InvalidSpecError{Param: s.Name, Reason: "duplicated possible value " + v}
		}

		seen[v] = struct{}{}
	}

	if _, ok := seen[s.Default]; !ok {
		return &InvalidSpecError{Param: s.Name, Reason: "default is not a possible value"}
	}

	return nil
}

func (s Enum) Check(v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, &InvalidParameterValueError{Param: s.Name, Value: v, Reason: "expected a string", Err: ErrWrongType}
	}

	for _, allowed := range s.Values {
		if str == allowed {
			return str, nil
		}
	}

	return nil, invalidValue(s.Name, v, "not one of %v", s.Values)
}

// Bool is a boolean parameter.
type Bool struct {
	Name    string
	Default bool
}

func (s Bool) Key() string       { return s.Name }
func (s Bool) Kind() Kind        { return KindBool }
func (s Bool) DefaultValue() any { return s.Default }

func (s Bool) Validate() error {
	if s.Name == "" {
		return &InvalidSpecError{Reason: "name must be set"}
	}

	return nil
}

func (s Bool) Check(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, &InvalidParameterValueError{Param: s.Name, Value: v, Reason: "expected a boolean", Err: ErrWrongType}
	}

	return b, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}

		return int(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || !finite(f) || f >= math.MaxInt || f < math.MinInt {
			return 0, false
		}

		return int(f), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

var (
	_ Spec = Int{}
	_ Spec = Double{}
	_ Spec = Enum{}
	_ Spec = Bool{}
)
