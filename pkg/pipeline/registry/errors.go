package registry

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrFactoryMustBeSet = errors.New("factory must be set")
	ErrTypeIDMustBeSet  = errors.New("type id must be set")
	ErrTypeMismatch     = errors.New("operator type does not match registered type id")
)

// DuplicateRegistrationError is returned when a type id is registered twice.
type DuplicateRegistrationError struct {
	TypeID string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("operator type %q is already registered", e.TypeID)
}

// UnknownOperatorError is returned when a type id is not registered.
type UnknownOperatorError struct {
	TypeID string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator type %q", e.TypeID)
}
