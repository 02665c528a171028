package param

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrWrongType        = errors.New("wrong value type")
)

// InvalidSpecError reports a malformed parameter description. It is fatal to
// the registration of the operator type declaring it.
type InvalidSpecError struct {
	Param  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid spec for parameter %q: %s", e.Param, e.Reason)
}

// InvalidParameterValueError reports a rejected parameter write. The previous
// value is retained.
type InvalidParameterValueError struct {
	Value  any
	Err    error
	Param  string
	Reason string
}

func (e *InvalidParameterValueError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter %q: %s", e.Value, e.Param, e.Reason)
}

func (e *InvalidParameterValueError) Unwrap() error {
	return e.Err
}

func invalidValue(name string, value any, format string, args ...any) *InvalidParameterValueError {
	return &InvalidParameterValueError{Param: name, Value: value, Reason: fmt.Sprintf(format, args...)}
}
