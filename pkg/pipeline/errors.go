package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrOperatorMustBeSet = errors.New("operator must be set")
	ErrEmptyName         = errors.New("stage name must not be empty")
	ErrInvalidOutput     = errors.New("operator returned an invalid image")
)

// IndexOutOfRangeError is returned by mutations addressing a missing stage.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Len)
}

// DuplicateNameError is returned when a rename would break name uniqueness.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("stage name %q is already used", e.Name)
}

// UnknownStageError is returned when a stage name does not exist.
type UnknownStageError struct {
	Name string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Name)
}

// OperatorFailedError identifies the stage whose operator failed during a run.
// The pipeline structure is left untouched.
type OperatorFailedError struct {
	Err   error
	Name  string
	Type  string
	Index int
}

func (e *OperatorFailedError) Error() string {
	return fmt.Sprintf("stage %d %q (%s) failed: %v", e.Index, e.Name, e.Type, e.Err)
}

func (e *OperatorFailedError) Unwrap() error {
	return e.Err
}
