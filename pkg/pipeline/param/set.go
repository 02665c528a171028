package param

// Value is a parameter spec paired with its current value.
type Value struct {
	Spec  Spec
	Value any
}

// Set holds the parameter values of one operator instance. The zero value is an
// empty set.
type Set struct {
	values map[string]any
	specs  []Spec
}

// NewSet validates specs and returns a Set initialised with their defaults.
func NewSet(specs ...Spec) (*Set, error) {
	set := &Set{
		specs:  make([]Spec, 0, len(specs)),
		values: make(map[string]any, len(specs)),
	}

	for _, spec := range specs {
		if spec == nil {
			return nil, &InvalidSpecError{Reason: "spec must be set"}
		}

		err := spec.Validate()
		if err != nil {
			return nil, err
		}

		if _, ok := set.values[spec.Key()]; ok {
			return nil, &InvalidSpecError{Param: spec.Key(), Reason: "declared twice"}
		}

		if enum, ok := spec.(Enum); ok {
			enum.Values = append([]string(nil), enum.Values...)
			spec = enum
		}

		set.specs = append(set.specs, spec)
		set.values[spec.Key()] = spec.DefaultValue()
	}

	return set, nil
}

// MustNewSet is like NewSet but panics on an invalid spec. It is meant for
// operator types whose specs are compile-time constants.
func MustNewSet(specs ...Spec) *Set {
	set, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}

	return set
}

// Specs returns the specs in declaration order.
func (s *Set) Specs() []Spec {
	return append([]Spec(nil), s.specs...)
}

// Spec returns the spec of the named parameter.
func (s *Set) Spec(name string) (Spec, bool) {
	for _, spec := range s.specs {
		if spec.Key() == name {
			return spec, true
		}
	}

	return nil, false
}

// Get returns the current value of the named parameter.
func (s *Set) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set validates v against the spec of name and stores it. On error the previous
// value is kept.
func (s *Set) Set(name string, v any) error {
	spec, ok := s.Spec(name)
	if !ok {
		return &InvalidParameterValueError{Param: name, Value: v, Reason: "no such parameter", Err: ErrUnknownParameter}
	}

	normalised, err := spec.Check(v)
	if err != nil {
		return err
	}

	s.values[name] = normalised

	return nil
}

// Values returns a snapshot of every parameter in declaration order.
func (s *Set) Values() []Value {
	out := make([]Value, len(s.specs))
	for i, spec := range s.specs {
		out[i] = Value{Spec: spec, Value: s.values[spec.Key()]}
	}

	return out
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	clone := &Set{
		specs:  append([]Spec(nil), s.specs...),
		values: make(map[string]any, len(s.values)),
	}

	for k, v := range s.values {
		clone.values[k] = v
	}

	return clone
}

// Int returns the value of an int parameter, 0 if it is not one.
func (s *Set) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// Float returns the value of a double parameter, 0 if it is not one.
func (s *Set) Float(name string) float64 {
	v, _ := s.values[name].(float64)
	return v
}

// String returns the value of an enum parameter, "" if it is not one.
func (s *Set) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Bool returns the value of a bool parameter, false if it is not one.
func (s *Set) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}
