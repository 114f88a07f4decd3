// Package values coerces loosely typed JSON/YAML decoded values (float64 from
// encoding/json, int from yaml.v3, numeric strings from form posts) into the
// shapes the engine compares against.
package values

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Float converts numbers and numeric strings to float64. Booleans are not
// numbers.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int converts numbers (truncating toward zero) and integer strings to int.
// Strings holding a fractional number are rejected.
func Int(v any) (int, bool) {
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// IsNumber reports whether v is a numeric Go value (strings excluded).
func IsNumber(v any) bool {
	if _, ok := v.(string); ok {
		return false
	}
	_, ok := Float(v)
	return ok
}

// String renders v for comparisons. Integral floats print without a
// fractional part so 1.0 and "1" compare equal.
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	}
	if f, ok := Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Equal compares two decoded values, treating numbers by value regardless of
// their Go type.
func Equal(a, b any) bool {
	if IsNumber(a) && IsNumber(b) {
		fa, _ := Float(a)
		fb, _ := Float(b)
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// Contains reports whether list holds an element Equal to needle.
func Contains(list []any, needle any) bool {
	for _, item := range list {
		if Equal(item, needle) {
			return true
		}
	}
	return false
}

// Truthy follows the usual JSON truthiness: nil, false, zero, "" and empty
// collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := Float(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// List returns v as []any when it is a slice.
func List(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Map returns v as map[string]any when it is an object. yaml.v3 can produce
// map[any]any for non-string keys; those are stringified.
func Map(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[String(key)] = value
		}
		return out, true
	}
	return nil, false
}

// TypeName names the JSON type of v for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	}
	if IsNumber(v) {
		return "number"
	}
	if _, ok := List(v); ok {
		return "list"
	}
	if _, ok := Map(v); ok {
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// Length returns the length of strings (in runes), lists and objects.
func Length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len([]rune(t)), true
	}
	if list, ok := List(v); ok {
		return len(list), true
	}
	if m, ok := Map(v); ok {
		return len(m), true
	}
	return 0, false
}

// Bool reads v as a boolean flag, treating absent/nil as false.
func Bool(v any) bool {
	b, ok := v.(bool)
	if ok {
		return b
	}
	return Truthy(v)
}

// Keys returns the keys of m in sorted order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
