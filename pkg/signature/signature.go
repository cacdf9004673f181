package signature

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdziat/handlerwrap/pkg/coerce"
	"github.com/jdziat/handlerwrap/pkg/core"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Shape is the parameter layout of a callable.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeInput
	ShapeInputContext
	ShapeContextInput
	ShapeContext
)

func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "()"
	case ShapeInput:
		return "(input)"
	case ShapeInputContext:
		return "(input, ctx)"
	case ShapeContextInput:
		return "(ctx, input)"
	case ShapeContext:
		return "(ctx)"
	}
	return "unknown"
}

// Arity is the number of parameters the shape takes.
func (s Shape) Arity() int {
	switch s {
	case ShapeInput, ShapeContext:
		return 1
	case ShapeInputContext, ShapeContextInput:
		return 2
	}
	return 0
}

// HasInput reports whether the callable receives the request input.
func (s Shape) HasInput() bool {
	return s == ShapeInput || s == ShapeInputContext || s == ShapeContextInput
}

// HasContext reports whether the callable receives the invocation context.
func (s Shape) HasContext() bool {
	return s == ShapeInputContext || s == ShapeContextInput || s == ShapeContext
}

// Signature describes the callable chosen for a unit.
type Signature struct {
	// Method is the method name that matched, empty for function units.
	Method string
	// Fn is the callable itself: a method value bound to the unit, or the
	// unit when it is a function.
	Fn reflect.Value
	// Found is false when the unit has no method of the requested name.
	Found bool
	// Degraded is set when a method of the requested name exists but none
	// has a usable shape.
	Degraded bool
	Shape    Shape
	Input    coerce.TypeDescriptor
}

// Arity is the number of arguments the engine supplies. Degraded callables
// count as single-input whatever they declare.
func (s Signature) Arity() int {
	return s.Shape.Arity()
}

func (s Signature) String() string {
	switch {
	case !s.Found:
		return "missing"
	case s.Degraded:
		return fmt.Sprintf("degraded %s", s.Fn.Type())
	}
	return fmt.Sprintf("%s %s -> %s", s.Shape, s.Input, results(s.Fn.Type()))
}

// Inspect finds the callable named method on unit. Function units are their
// own callable and the method name is ignored. It fails only when unit is
// not a usable value; a missing method is reported through Found.
func Inspect(unit reflect.Value, method string) (Signature, error) {
	if !unit.IsValid() {
		return Signature{}, fmt.Errorf("%w: invalid unit value", core.ErrBinding)
	}
	switch unit.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		if unit.IsNil() {
			return Signature{}, fmt.Errorf("%w: nil unit value", core.ErrBinding)
		}
	}

	if unit.Kind() == reflect.Func {
		return describe("", unit), nil
	}

	var candidates []reflect.Value
	var names []string
	t := unit.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if matches(m.Name, method) {
			candidates = append(candidates, unit.Method(i))
			names = append(names, m.Name)
		}
	}

	for i, fn := range candidates {
		if sig := describe(names[i], fn); !sig.Degraded {
			return sig, nil
		}
	}
	if len(candidates) > 0 {
		return Signature{
			Method:   names[0],
			Fn:       candidates[0],
			Found:    true,
			Degraded: true,
			Shape:    ShapeInput,
			Input:    coerce.Untyped(),
		}, nil
	}
	return Signature{Method: method}, nil
}

// AcceptsContext reports whether a context.Context can be passed as t.
func AcceptsContext(t reflect.Type) bool {
	return contextType.AssignableTo(t)
}

// ValidResults reports whether t's results are (), (R), (error) or (R, error).
func ValidResults(t reflect.Type) bool {
	switch t.NumOut() {
	case 0, 1:
		return true
	case 2:
		return t.Out(1).Implements(errorType)
	}
	return false
}

// ReturnsError reports whether t's last result is an error.
func ReturnsError(t reflect.Type) bool {
	n := t.NumOut()
	if n == 0 {
		return false
	}
	if n == 1 {
		return t.Out(0) == errorType
	}
	return t.Out(n - 1).Implements(errorType)
}

// describe classifies fn. Variadic callables and unsupported results are
// marked degraded here, but Bind rejects them with ErrBinding, so they fail
// at resolution instead of being invoked best effort.
func describe(name string, fn reflect.Value) Signature {
	t := fn.Type()
	sig := Signature{Method: name, Fn: fn, Found: true}

	shape, input, ok := classify(t)
	if !ok || t.IsVariadic() || !ValidResults(t) {
		sig.Degraded = true
		sig.Shape = ShapeInput
		sig.Input = coerce.Untyped()
		return sig
	}
	sig.Shape = shape
	sig.Input = coerce.Untyped()
	if input != nil {
		sig.Input = coerce.Describe(input)
	}
	return sig
}

func classify(t reflect.Type) (Shape, reflect.Type, bool) {
	switch t.NumIn() {
	case 0:
		return ShapeNone, nil, true
	case 1:
		if t.In(0) == contextType {
			return ShapeContext, nil, true
		}
		return ShapeInput, t.In(0), true
	case 2:
		first, second := t.In(0), t.In(1)
		switch {
		case second == contextType:
			return ShapeInputContext, first, true
		case first == contextType:
			return ShapeContextInput, second, true
		case AcceptsContext(second):
			return ShapeInputContext, first, true
		case AcceptsContext(first):
			return ShapeContextInput, second, true
		}
	}
	return 0, nil, false
}

func matches(name, want string) bool {
	return name == want || name == exported(want)
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func results(t reflect.Type) string {
	out := make([]string, t.NumOut())
	for i := range out {
		out[i] = t.Out(i).String()
	}
	return "(" + strings.Join(out, ", ") + ")"
}
