package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// convertNumber converts a numeric raw value into numeric type t, refusing
// conversions that would truncate or overflow.
func convertNumber(raw any, t reflect.Type) (any, error) {
	if n, ok := raw.(json.Number); ok {
		return convertNumberText(n.String(), t)
	}

	v := reflect.ValueOf(raw)
	k := v.Kind()
	if !isNumber(k) {
		return nil, fmt.Errorf("cannot use %T as %s", raw, t)
	}

	out := reflect.New(t).Elem()
	switch {
	case isInt(t.Kind()):
		var i int64
		switch {
		case isInt(k):
			i = v.Int()
		case isUint(k):
			u := v.Uint()
			if u > math.MaxInt64 {
				return nil, fmt.Errorf("%d overflows %s", u, t)
			}
			i = int64(u)
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return nil, fmt.Errorf("%v is not an integral %s", f, t)
			}
			i = int64(f)
		}
		if out.OverflowInt(i) {
			return nil, fmt.Errorf("%d overflows %s", i, t)
		}
		out.SetInt(i)

	case isUint(t.Kind()):
		var u uint64
		switch {
		case isInt(k):
			i := v.Int()
			if i < 0 {
				return nil, fmt.Errorf("%d is negative, cannot use as %s", i, t)
			}
			u = uint64(i)
		case isUint(k):
			u = v.Uint()
		default:
			f := v.Float()
			if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
				return nil, fmt.Errorf("%v is not an unsigned integral %s", f, t)
			}
			u = uint64(f)
		}
		if out.OverflowUint(u) {
			return nil, fmt.Errorf("%d overflows %s", u, t)
		}
		out.SetUint(u)

	default:
		var f float64
		switch {
		case isInt(k):
			f = float64(v.Int())
		case isUint(k):
			f = float64(v.Uint())
		default:
			f = v.Float()
		}
		if out.OverflowFloat(f) {
			return nil, fmt.Errorf("%v overflows %s", f, t)
		}
		out.SetFloat(f)
	}
	return out.Interface(), nil
}

func convertNumberText(s string, t reflect.Type) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return convertNumber(i, t)
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return convertNumber(u, t)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return convertNumber(f, t)
}
