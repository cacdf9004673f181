package core

import (
	"errors"
	"fmt"
	"reflect"
)

// Resolution errors
var (
	ErrMissingHandler   = errors.New("handlerwrap: no handler configured")
	ErrNotFound         = errors.New("handlerwrap: handler unit not found")
	ErrBinding          = errors.New("handlerwrap: cannot bind handler method")
	ErrInvalidUnitName  = errors.New("handlerwrap: invalid unit name (must start with a letter or underscore)")
	ErrUnitNameTooLong  = errors.New("handlerwrap: unit name too long")
	ErrDuplicateUnit    = errors.New("handlerwrap: unit already registered")
	ErrInvalidSchedule  = errors.New("handlerwrap: invalid schedule")
	ErrInvocationRecord = errors.New("handlerwrap: invocation record not found")
)

// Invocation errors
var (
	ErrCoercion            = errors.New("handlerwrap: cannot coerce input")
	ErrWrongInvocationKind = errors.New("handlerwrap: wrong invocation kind")
	ErrPayloadTooLarge     = errors.New("handlerwrap: payload exceeds size limit")
)

// InvocationError wraps any failure raised while serving a single request.
type InvocationError struct {
	Handler   string
	RequestID string
	Cause     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Handler, e.Cause)
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// CoercionError reports that a raw input could not be converted into the
// declared input type of the handler.
type CoercionError struct {
	Target reflect.Type
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce input to %v: %v", e.Target, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// Is makes every CoercionError match ErrCoercion.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// Coercion wraps err as a CoercionError for the given target type.
func Coercion(target reflect.Type, err error) error {
	return &CoercionError{Target: target, Err: err}
}

// PanicError carries the value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
