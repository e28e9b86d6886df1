// Package coerce converts loosely typed model values (decoded JSON/YAML or
// host supplied Go values) into the handful of shapes the engine reasons about.
package coerce

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Truthy mirrors the loose truthiness used by branch predicates: nil, false,
// zero numbers, empty strings and NaN are falsy; everything else is truthy.
// Empty collections are truthy, matching how predicates treat objects.
func Truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case time.Time:
		return true
	}
	if n, ok := Number(value); ok {
		return n != 0 && n == n
	}
	return true
}

// Number reports the float64 value of any Go numeric kind or json.Number.
// Strings are not parsed; use ParseNumber for that.
func Number(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseNumber behaves like Number but also accepts numeric strings.
func ParseNumber(value any) (float64, bool) {
	if n, ok := Number(value); ok {
		return n, true
	}
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// String renders a value the way a template or message would print it.
func String(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	if n, ok := Number(value); ok {
		return FormatNumber(n)
	}
	return fmt.Sprint(value)
}

// FormatNumber prints integral floats without a fractional part.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Slice returns the elements of any slice or array value.
func Slice(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if v, ok := value.([]any); ok {
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a string, not a list
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Object returns a string-keyed view of any map whose keys are strings.
func Object(value any) (map[string]any, bool) {
	if value == nil {
		return nil, false
	}
	if v, ok := value.(map[string]any); ok {
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// IsSlice reports whether value is a list.
func IsSlice(value any) bool {
	_, ok := Slice(value)
	return ok
}

// IsObject reports whether value is a string-keyed map.
func IsObject(value any) bool {
	_, ok := Object(value)
	return ok
}
