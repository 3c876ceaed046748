package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-ccnut/pkg/scope"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

// CollectScope asks for every path in refs the scope cannot resolve. Answers
// are stored under the full dotted path, which Lookup resolves before walking
// nested maps. Blank answers leave the path unset.
func CollectScope(ctx context.Context, d Driver, refs []string, sc scope.Scope) (scope.Scope, error) {
	out := scope.New(sc.Values)
	for _, ref := range refs {
		if _, ok := out.Lookup(ref); ok {
			continue
		}
		answer, err := d.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Value for %s:", ref),
			Help:    "Leave blank to keep the placeholder in the output.",
		})
		if err != nil {
			return sc, fmt.Errorf("prompt: %s: %w", ref, err)
		}
		if strings.TrimSpace(answer) == "" {
			continue
		}
		out = out.With(ref, answer)
	}
	return out, nil
}

// SelectPlugins asks which widget plugins the target page loads and marks
// only those available.
func SelectPlugins(ctx context.Context, d Driver, reg *widgets.Registry) error {
	names := reg.Names()
	if len(names) == 0 {
		return nil
	}

	options := make([]string, 0, len(names))
	var defaults []int
	for i, name := range names {
		label := name
		if w, ok := reg.Lookup(name); ok && w.Library != "" {
			label = fmt.Sprintf("%s (%s)", name, w.Library)
		}
		options = append(options, label)
		if reg.Available(name) {
			defaults = append(defaults, i)
		}
	}

	selected, err := d.MultiSelect(ctx, SelectConfig{
		Message:  "Plugins loaded on the page:",
		Options:  options,
		Defaults: defaults,
	})
	if err != nil {
		return fmt.Errorf("prompt: plugins: %w", err)
	}

	available := make([]string, 0, len(selected))
	for _, idx := range selected {
		if idx >= 0 && idx < len(names) {
			available = append(available, names[idx])
		}
	}
	reg.SetAvailableOnly(available...)
	return nil
}

// ConfirmOverwrite asks before replacing an existing output file.
func ConfirmOverwrite(ctx context.Context, d Driver, path string) (bool, error) {
	ok, err := d.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Overwrite %s?", path),
		Default: true,
	})
	if err != nil {
		return false, fmt.Errorf("prompt: overwrite %s: %w", path, err)
	}
	return ok, nil
}
