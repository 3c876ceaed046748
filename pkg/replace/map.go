package replace

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

// Pair is a single pattern/value entry.
type Pair struct {
	Pattern string
	Value   any
}

// Map is an ordered set of replacements. Later entries see the output of
// earlier ones.
type Map []Pair

// Add appends an entry and returns the map for chaining.
func (m Map) Add(pattern string, value any) Map {
	return append(m, Pair{Pattern: pattern, Value: value})
}

// Patterns lists the map keys in application order.
func (m Map) Patterns() []string {
	out := make([]string, 0, len(m))
	for _, pair := range m {
		out = append(out, pair.Pattern)
	}
	return out
}

// FromStrings converts a Go map. Keys are sorted so repeated calls apply
// entries in the same order.
func FromStrings(values map[string]string) Map {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(Map, 0, len(keys))
	for _, key := range keys {
		out = append(out, Pair{Pattern: key, Value: values[key]})
	}
	return out
}

// FromAny converts a Go map with arbitrary values. Keys are sorted.
func FromAny(values map[string]any) Map {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(Map, 0, len(keys))
	for _, key := range keys {
		out = append(out, Pair{Pattern: key, Value: values[key]})
	}
	return out
}

// ValueResolver turns a YAML value node into the replacement value. It lets
// callers resolve identifiers against a scope while parsing.
type ValueResolver func(node *yaml.Node) (any, error)

// ParseMap decodes a YAML or JSON mapping, keeping document order. Flow style
// covers the attribute form `{'%name%': 'Jurgen'}`.
func ParseMap(data []byte) (Map, error) {
	return ParseMapWith(data, decodeNode)
}

// ParseMapWith decodes a mapping and hands every value node to resolve.
// Documents that are empty, null or not a mapping return
// ErrInvalidReplacements.
func ParseMapWith(data []byte, resolve ValueResolver) (Map, error) {
	if resolve == nil {
		resolve = decodeNode
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrInvalidReplacements
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrInvalidReplacements, ErrMalformedMapping, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, ErrInvalidReplacements
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, ErrInvalidReplacements
	}

	out := make(Map, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, valueNode := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: keys must be scalars (line %d)", ErrInvalidReplacements, key.Line)
		}
		value, err := resolve(valueNode)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Pattern: key.Value, Value: value})
	}
	return out, nil
}

func decodeNode(node *yaml.Node) (any, error) {
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("replace: decode value (line %d): %w", node.Line, err)
	}
	return value, nil
}

// normalize accepts the map shapes Apply understands.
func normalize(replacements any) (Map, error) {
	switch typed := replacements.(type) {
	case nil:
		return nil, ErrInvalidReplacements
	case Map:
		return typed, nil
	case *Map:
		if typed == nil {
			return nil, ErrInvalidReplacements
		}
		return *typed, nil
	case []Pair:
		return Map(typed), nil
	case map[string]string:
		return FromStrings(typed), nil
	case map[string]any:
		return FromAny(typed), nil
	}

	rv := reflect.ValueOf(replacements)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, ErrInvalidReplacements
	}
	values := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		values[iter.Key().String()] = iter.Value().Interface()
	}
	return FromAny(values), nil
}
