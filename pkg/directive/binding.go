package directive

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/scope"
)

// ParseBinding reads a binding attribute such as
//
//	{'%name%': user.name, '%site%': 'ccnut'}
//
// Quoted scalars are literals. Plain words are scope paths and resolve to nil
// when the scope has no such value. Numbers, booleans and null keep their YAML
// meaning, and nested collections are decoded as is.
func ParseBinding(raw string, sc scope.Scope) (replace.Map, error) {
	return replace.ParseMapWith([]byte(raw), scopeResolver(sc))
}

// ParseOptions reads a widget options attribute into a plain map. Empty or
// non-mapping attributes yield nil options; syntax errors are returned.
func ParseOptions(raw string, sc scope.Scope) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	pairs, err := ParseBinding(raw, sc)
	if err != nil {
		if errors.Is(err, replace.ErrMalformedMapping) {
			return nil, err
		}
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		out[pair.Pattern] = pair.Value
	}
	return out, nil
}

// ParseData decodes a bootstrapping block into a map. Non-mapping documents
// yield nil.
func ParseData(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	data, _ := value.(map[string]any)
	return data, nil
}

func scopeResolver(sc scope.Scope) replace.ValueResolver {
	return func(node *yaml.Node) (any, error) {
		if node.Kind == yaml.ScalarNode && node.Style == 0 && node.Tag == "!!str" {
			value, ok := sc.Lookup(node.Value)
			if !ok {
				return nil, nil
			}
			return value, nil
		}
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	}
}
