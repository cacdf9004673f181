package coerce

import (
	"reflect"

	"github.com/jdziat/handlerwrap/pkg/events"
)

// Kind selects a coercion strategy.
type Kind int

const (
	KindUntyped Kind = iota
	KindPrimitive
	KindEvent
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindUntyped:
		return "untyped"
	case KindPrimitive:
		return "primitive"
	case KindEvent:
		return "event"
	case KindStructured:
		return "structured"
	}
	return "unknown"
}

// TypeDescriptor describes a declared input type well enough to pick a
// coercion strategy. A nil Type means the signature declared no usable type.
type TypeDescriptor struct {
	Type  reflect.Type
	Kind  Kind
	Codec events.Codec
}

// Untyped is the descriptor used when no input type is known.
func Untyped() TypeDescriptor {
	return TypeDescriptor{Kind: KindUntyped}
}

// Describe classifies t.
func Describe(t reflect.Type) TypeDescriptor {
	if t == nil || t.Kind() == reflect.Interface {
		return TypeDescriptor{Type: t, Kind: KindUntyped}
	}
	if isPrimitive(t.Kind()) {
		return TypeDescriptor{Type: t, Kind: KindPrimitive}
	}
	if codec, ok := events.Lookup(t); ok {
		return TypeDescriptor{Type: t, Kind: KindEvent, Codec: codec}
	}
	return TypeDescriptor{Type: t, Kind: KindStructured}
}

// String renders the descriptor for logs.
func (d TypeDescriptor) String() string {
	if d.Type == nil {
		return d.Kind.String()
	}
	if d.Codec != nil {
		return d.Kind.String() + "(" + d.Codec.Name() + ")"
	}
	return d.Kind.String() + "(" + d.Type.String() + ")"
}

func isPrimitive(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Bool || isNumber(k)
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
