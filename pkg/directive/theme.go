package directive

import (
	"fmt"

	theme "github.com/goliatone/go-theme"
)

// themeValues resolves a theme selection into scope values:
//
//	theme.name, theme.variant, theme.tokens.<token>
//
// Variant tokens override manifest tokens.
func themeValues(selector theme.ThemeSelector, name, variant string) (map[string]any, error) {
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("directive: select theme %q/%q: %w", name, variant, err)
	}
	if selection == nil {
		return nil, nil
	}

	tokens := make(map[string]any)
	if manifest := selection.Manifest; manifest != nil {
		for key, value := range manifest.Tokens {
			tokens[key] = value
		}
		if v, ok := manifest.Variants[selection.Variant]; ok {
			for key, value := range v.Tokens {
				tokens[key] = value
			}
		}
	}

	return map[string]any{
		"name":    selection.Theme,
		"variant": selection.Variant,
		"tokens":  tokens,
	}, nil
}
