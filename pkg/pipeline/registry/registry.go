// Package registry catalogs the operator types a pipeline can be built from.
//
// A Registry is constructed explicitly by the application entry point, filled
// once by extension loading and read many times afterwards. Entries are never
// removed.
package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// Factory returns a fresh operator instance with default parameter values.
type Factory func() (operator.Operator, error)

// Descriptor describes a registered operator type.
type Descriptor struct {
	TypeID      string
	DisplayName string
	Specs       []param.Spec
}

type entry struct {
	factory    Factory
	descriptor Descriptor
}

// Registry maps type identifiers to operator factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds an operator type. The factory is invoked once to capture the
// type descriptor, so an invalid parameter spec fails the registration.
func (r *Registry) Register(typeID string, factory Factory) error {
	if typeID == "" {
		return ErrTypeIDMustBeSet
	}

	if factory == nil {
		return ErrFactoryMustBeSet
	}

	r.mu.RLock()
	_, exists := r.entries[typeID]
	r.mu.RUnlock()

	if exists {
		return &DuplicateRegistrationError{TypeID: typeID}
	}

	descriptor, err := describe(typeID, factory)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[typeID]; ok {
		return &DuplicateRegistrationError{TypeID: typeID}
	}

	r.entries[typeID] = &entry{factory: factory, descriptor: descriptor}
	r.order = append(r.order, typeID)

	return nil
}

// create calls factory and checks it returned an operator of typeID.
func create(typeID string, factory Factory) (operator.Operator, error) {
	op, err := factory()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create operator %q", typeID)
	}

	if op == nil {
		return nil, errors.Wrapf(ErrFactoryMustBeSet, "factory of %q returned no operator", typeID)
	}

	if op.Type() != typeID {
		return nil, errors.Wrapf(ErrTypeMismatch, "registered %q, operator reports %q", typeID, op.Type())
	}

	return op, nil
}

func describe(typeID string, factory Factory) (Descriptor, error) {
	op, err := create(typeID, factory)
	if err != nil {
		return Descriptor{}, err
	}

	values := op.Parameters()
	specs := make([]param.Spec, len(values))

	for i, v := range values {
		specs[i] = v.Spec
	}

	displayName := typeID
	if d, ok := op.(operator.Describer); ok && d.DisplayName() != "" {
		displayName = d.DisplayName()
	}

	return Descriptor{TypeID: typeID, DisplayName: displayName, Specs: specs}, nil
}

// Available lists every registered type in registration order.
func (r *Registry) Available() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.order))
	for i, typeID := range r.order {
		out[i] = r.entries[typeID].descriptor
		out[i].Specs = append([]param.Spec(nil), out[i].Specs...)
	}

	return out
}

// Descriptor returns the descriptor of typeID.
func (r *Registry) Descriptor(typeID string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[typeID]
	if !ok {
		return Descriptor{}, &UnknownOperatorError{TypeID: typeID}
	}

	d := e.descriptor
	d.Specs = append([]param.Spec(nil), d.Specs...)

	return d, nil
}

// Instantiate creates a fresh operator of typeID with default parameters.
func (r *Registry) Instantiate(typeID string) (operator.Operator, error) {
	r.mu.RLock()
	e, ok := r.entries[typeID]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownOperatorError{TypeID: typeID}
	}

	return create(typeID, e.factory)
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
