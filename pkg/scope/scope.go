// Package scope holds the named values bindings resolve against. It replaces
// runtime expression evaluation: a binding names a dot path and the scope
// answers with the value stored there.
package scope

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Scope is a tree of named values. Nested maps are traversed with dot paths
// ("user.name").
type Scope struct {
	Values map[string]any
}

// New returns a scope seeded with a shallow copy of values.
func New(values map[string]any) Scope {
	s := Scope{Values: make(map[string]any, len(values))}
	for key, value := range values {
		s.Values[key] = value
	}
	return s
}

// With returns a copy of the scope with key set to value. The receiver is left
// untouched so sibling elements never observe each other's bindings.
func (s Scope) With(key string, value any) Scope {
	out := New(s.Values)
	key = strings.TrimSpace(key)
	if key != "" {
		out.Values[key] = value
	}
	return out
}

// Merge copies values into the scope, overwriting existing top-level keys.
func (s *Scope) Merge(values map[string]any) {
	if s == nil || len(values) == 0 {
		return
	}
	if s.Values == nil {
		s.Values = make(map[string]any, len(values))
	}
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		s.Values[key] = value
	}
}

// Lookup resolves path against the scope. Exact keys win over dot traversal
// so flattened keys like "cta.headline" stay addressable.
func (s Scope) Lookup(path string) (any, bool) {
	return lookupMap(s.Values, path)
}

// String resolves path and formats the value. Missing paths return "".
func (s Scope) String(path string) string {
	value, ok := s.Lookup(path)
	if !ok {
		return ""
	}
	return Stringify(value)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}

	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, false
			}
			current = typed[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Truthy reports whether value counts as set. nil, "", zero numbers, NaN
// and false are falsy, including named types built on those kinds (such as
// template.HTML). Nil pointers, maps and slices are falsy; empty but non-nil
// collections and structs are truthy.
func Truthy(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

// Stringify formats a scope value for insertion into markup.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}
