package coerce

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
)

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	jsonNumberType      = reflect.TypeOf(json.Number(""))
)

// unmarshalerHook routes values headed for types with their own JSON or text
// codec through that codec, so structural mapping agrees with JSON parsing
// (timestamps, raw messages, enums). Numbers follow the same lossless rules
// as primitive coercion and never land in string fields.
func unmarshalerHook(api jsoniter.API) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from == to || to.Kind() == reflect.Interface {
			return data, nil
		}

		ptr := reflect.New(to)
		if reflect.PointerTo(to).Implements(jsonUnmarshalerType) {
			text, err := api.Marshal(data)
			if err != nil {
				return nil, err
			}
			if err := ptr.Interface().(json.Unmarshaler).UnmarshalJSON(text); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}

		if s, ok := data.(string); ok && reflect.PointerTo(to).Implements(textUnmarshalerType) {
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}

		if !isNumeric(from) {
			return data, nil
		}
		switch {
		case to == jsonNumberType:
			text, err := api.Marshal(data)
			if err != nil {
				return nil, err
			}
			return json.Number(text), nil
		case isNumber(to.Kind()):
			return convertNumber(data, to)
		case to.Kind() == reflect.String:
			return nil, fmt.Errorf("cannot use number %v as %s", data, to)
		}
		return data, nil
	}
}

func isNumeric(t reflect.Type) bool {
	return t == jsonNumberType || isNumber(t.Kind())
}
