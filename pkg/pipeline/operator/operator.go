// Package operator defines the unit of computation of a pipeline.
package operator

import (
	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// Operator transforms an image according to its parameters.
//
// Apply must not modify img: stages hand buffers to each other unchanged and a
// failed run must leave no trace in any buffer the caller holds.
type Operator interface {
	// Type returns the registry type identifier of the operator.
	Type() string
	// Apply transforms img. It may read and write ctx.
	Apply(img mat.Mat, ctx *model.Context) (mat.Mat, error)
	// Parameters returns the current parameter values in declaration order.
	Parameters() []param.Value
	// SetParameter validates and stores a parameter value.
	SetParameter(name string, value any) error
}

// Describer is implemented by operators with a human readable name.
type Describer interface {
	DisplayName() string
}

// Base carries the bookkeeping shared by every operator. Concrete operators
// embed it and implement Apply.
type Base struct {
	Params      *param.Set
	typeID      string
	displayName string
}

// NewBase builds a Base for typeID with a fresh parameter set.
func NewBase(typeID, displayName string, specs ...param.Spec) (Base, error) {
	set, err := param.NewSet(specs...)
	if err != nil {
		return Base{}, err
	}

	return Base{Params: set, typeID: typeID, displayName: displayName}, nil
}

func (b *Base) Type() string { return b.typeID }

func (b *Base) DisplayName() string {
	if b.displayName == "" {
		return b.typeID
	}

	return b.displayName
}

func (b *Base) Parameters() []param.Value {
	if b.Params == nil {
		return nil
	}

	return b.Params.Values()
}

func (b *Base) SetParameter(name string, value any) error {
	if b.Params == nil {
		return &param.InvalidParameterValueError{Param: name, Value: value, Reason: "no such parameter", Err: param.ErrUnknownParameter}
	}

	return b.Params.Set(name, value)
}

// ApplyFunc is the signature of a stateless transformation.
type ApplyFunc func(img mat.Mat, params *param.Set, ctx *model.Context) (mat.Mat, error)

// Func is an Operator backed by an ApplyFunc.
type Func struct {
	fn ApplyFunc
	Base
}

// NewFunc builds an operator whose Apply delegates to fn.
func NewFunc(typeID, displayName string, fn ApplyFunc, specs ...param.Spec) (*Func, error) {
	base, err := NewBase(typeID, displayName, specs...)
	if err != nil {
		return nil, err
	}

	return &Func{Base: base, fn: fn}, nil
}

func (f *Func) Apply(img mat.Mat, ctx *model.Context) (mat.Mat, error) {
	return f.fn(img, f.Params, ctx)
}

var (
	_ Operator  = (*Func)(nil)
	_ Describer = (*Func)(nil)
)
