package coerce

import (
	"encoding/json"
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"

	"github.com/jdziat/handlerwrap/pkg/core"
	"github.com/jdziat/handlerwrap/pkg/security"
)

type strategy func(c *Coercer, raw any, d TypeDescriptor) (any, error)

// Coercer converts raw inputs according to a TypeDescriptor. It holds no
// per-request state and is safe for concurrent use.
type Coercer struct {
	json       jsoniter.API
	strategies map[Kind]strategy
}

// New creates a Coercer with the default strategy table.
func New() *Coercer {
	return &Coercer{
		json: jsoniter.Config{
			EscapeHTML:             true,
			SortMapKeys:            true,
			ValidateJsonRawMessage: true,
			UseNumber:              true,
		}.Froze(),
		strategies: map[Kind]strategy{
			KindUntyped:    coerceUntyped,
			KindPrimitive:  coercePrimitive,
			KindEvent:      coerceEvent,
			KindStructured: coerceStructured,
		},
	}
}

// Coerce converts raw into a value of d.Type. Failures are CoercionErrors.
func (c *Coercer) Coerce(raw any, d TypeDescriptor) (any, error) {
	s, ok := c.strategies[d.Kind]
	if !ok {
		return nil, core.Coercion(d.Type, fmt.Errorf("no strategy for %s", d.Kind))
	}
	v, err := s(c, raw, d)
	if err != nil {
		return nil, core.Coercion(d.Type, err)
	}
	return v, nil
}

// Decode parses JSON text into a generic value, keeping numbers as
// json.Number. It mirrors what a transport hands the engine.
func (c *Coercer) Decode(data []byte) (any, error) {
	var v any
	if err := c.json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode renders v as canonical JSON text.
func (c *Coercer) Encode(v any) ([]byte, error) {
	return c.json.Marshal(v)
}

func coerceUntyped(_ *Coercer, raw any, _ TypeDescriptor) (any, error) {
	return raw, nil
}

func coercePrimitive(_ *Coercer, raw any, d TypeDescriptor) (any, error) {
	t := d.Type
	if raw == nil {
		return reflect.Zero(t).Interface(), nil
	}
	if v, ok := direct(raw, t); ok {
		return v, nil
	}

	v := reflect.ValueOf(raw)
	switch {
	case t.Kind() == reflect.String && v.Kind() == reflect.String:
		return v.Convert(t).Interface(), nil
	case t.Kind() == reflect.Bool && v.Kind() == reflect.Bool:
		return v.Convert(t).Interface(), nil
	case isNumber(t.Kind()):
		return convertNumber(raw, t)
	}
	return nil, fmt.Errorf("cannot use %T as %s", raw, t)
}

func coerceEvent(c *Coercer, raw any, d TypeDescriptor) (any, error) {
	if raw == nil {
		return reflect.Zero(d.Type).Interface(), nil
	}
	if v, ok := direct(raw, d.Type); ok {
		return v, nil
	}

	data, err := c.canonical(raw)
	if err != nil {
		return nil, err
	}
	decoded, err := d.Codec.Decode(data)
	if err != nil {
		return nil, err
	}

	// Codecs return *Shape; hand back the declared form.
	if d.Type.Kind() == reflect.Pointer {
		return decoded, nil
	}
	return reflect.ValueOf(decoded).Elem().Interface(), nil
}

func coerceStructured(c *Coercer, raw any, d TypeDescriptor) (any, error) {
	if raw == nil {
		return reflect.Zero(d.Type).Interface(), nil
	}
	if v, ok := direct(raw, d.Type); ok {
		return v, nil
	}

	ptr := reflect.New(d.Type)
	if text, ok := asText(raw); ok {
		if err := security.ValidatePayloadSize(len(text)); err != nil {
			return nil, err
		}
		if err := c.json.Unmarshal(text, ptr.Interface()); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: unmarshalerHook(c.json),
		Result:     ptr.Interface(),
		TagName:    "json",
		Squash:     true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// canonical renders raw as JSON text; textual inputs already are.
func (c *Coercer) canonical(raw any) ([]byte, error) {
	if text, ok := asText(raw); ok {
		if err := security.ValidatePayloadSize(len(text)); err != nil {
			return nil, err
		}
		return text, nil
	}
	return c.json.Marshal(raw)
}

// direct returns raw when it can be used as t without any transform,
// dereferencing a pointer when t is its element type.
func direct(raw any, t reflect.Type) (any, bool) {
	v := reflect.ValueOf(raw)
	if v.Type().AssignableTo(t) {
		return raw, true
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem().AssignableTo(t) {
		return v.Elem().Interface(), true
	}
	return nil, false
}

func asText(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	case json.RawMessage:
		return v, true
	}
	return nil, false
}

