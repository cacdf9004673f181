// Package handler provides reflection-based handler invocation for the engine.
package handler

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/signature"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Adapter is the uniform call form of every bound handler.
type Adapter func(ctx context.Context, input any) (any, error)

// Handler holds a bound callable and how to call it.
type Handler struct {
	Fn       reflect.Value
	Shape    signature.Shape
	Degraded bool
}

// Bind creates a Handler from an inspected signature.
func Bind(sig signature.Signature) (*Handler, error) {
	if !sig.Found {
		return nil, fmt.Errorf("%w: no method %q", core.ErrBinding, sig.Method)
	}

	fn := sig.Fn
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("%w: handler function is nil or invalid", core.ErrBinding)
	}

	fnType := fn.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", core.ErrBinding, fnType)
	}
	if !signature.ValidResults(fnType) {
		return nil, fmt.Errorf("%w: %s must return (), R, error or (R, error)", core.ErrBinding, fnType)
	}

	return &Handler{Fn: fn, Shape: sig.Shape, Degraded: sig.Degraded}, nil
}

// Adapter returns h.Invoke as an Adapter.
func (h *Handler) Adapter() Adapter {
	return h.Invoke
}

// Invoke calls the handler with ctx and an input already coerced to the
// declared type. A panic in the handler is returned as a *core.PanicError.
func (h *Handler) Invoke(ctx context.Context, input any) (out any, err error) {
	var args []reflect.Value
	if h.Degraded {
		args, err = h.bestEffortArgs(ctx, input)
	} else {
		args, err = h.args(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &core.PanicError{Value: r}
		}
	}()

	return normalize(h.Fn.Type(), h.Fn.Call(args))
}

func (h *Handler) args(ctx context.Context, input any) ([]reflect.Value, error) {
	fnType := h.Fn.Type()
	switch h.Shape {
	case signature.ShapeNone:
		return nil, nil
	case signature.ShapeContext:
		return []reflect.Value{contextValue(ctx, fnType.In(0))}, nil
	}

	inIdx, ctxIdx := 0, 1
	if h.Shape == signature.ShapeContextInput {
		inIdx, ctxIdx = 1, 0
	}

	in, err := inputValue(input, fnType.In(inIdx))
	if err != nil {
		return nil, err
	}
	if h.Shape == signature.ShapeInput {
		return []reflect.Value{in}, nil
	}

	args := make([]reflect.Value, 2)
	args[inIdx] = in
	args[ctxIdx] = contextValue(ctx, fnType.In(ctxIdx))
	return args, nil
}

// bestEffortArgs fills the first non-context parameter with the input,
// context parameters with ctx and everything else with zero values.
func (h *Handler) bestEffortArgs(ctx context.Context, input any) ([]reflect.Value, error) {
	fnType := h.Fn.Type()
	args := make([]reflect.Value, fnType.NumIn())
	placed := false
	for i := range args {
		p := fnType.In(i)
		switch {
		case p == contextType:
			args[i] = contextValue(ctx, p)
		case !placed:
			in, err := inputValue(input, p)
			if err != nil {
				return nil, err
			}
			args[i] = in
			placed = true
		case signature.AcceptsContext(p):
			args[i] = contextValue(ctx, p)
		default:
			args[i] = reflect.Zero(p)
		}
	}
	return args, nil
}

func inputValue(input any, t reflect.Type) (reflect.Value, error) {
	if input == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(input)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, core.Coercion(t, fmt.Errorf("cannot use %T as %s", input, t))
	}
	return v, nil
}

func contextValue(ctx context.Context, t reflect.Type) reflect.Value {
	if ctx == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(ctx)
}

func normalize(fnType reflect.Type, results []reflect.Value) (any, error) {
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if fnType.Out(0) == errorType {
			return nil, errorOf(results[0])
		}
		return valueOf(results[0]), nil
	default:
		if err := errorOf(results[1]); err != nil {
			return nil, err
		}
		return valueOf(results[0]), nil
	}
}

func errorOf(v reflect.Value) error {
	if isNil(v) {
		return nil
	}
	return v.Interface().(error)
}

func valueOf(v reflect.Value) any {
	if v.Kind() == reflect.Interface && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
