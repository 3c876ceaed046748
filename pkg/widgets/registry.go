// Package widgets assembles options for the external widget plugins the
// bindings initialise (Bootstrap tooltip, jQuery UI datepicker and slider).
//
// The plugins themselves run in the browser. This package owns what happens
// on the server: default options, caller overrides, plugin availability and
// the model values rendered into the markup.
package widgets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in widget identifiers.
const (
	WidgetTooltip    = "tooltip"
	WidgetDatepicker = "datepicker"
	WidgetSlider     = "slider"
)

var (
	// ErrUnknownWidget is returned for names that were never registered.
	ErrUnknownWidget = errors.New("widgets: unknown widget")
	// ErrPluginUnavailable is returned when the plugin backing a widget has not
	// been marked available.
	ErrPluginUnavailable = errors.New("widgets: plugin not available")
)

// PrepareFunc post-processes merged options before they are emitted.
type PrepareFunc func(options map[string]any) (map[string]any, error)

// Widget describes a plugin-backed binding.
type Widget struct {
	// Name is the registry key.
	Name string
	// Directive is the binding name used in log messages (e.g. ccnutBsTooltip).
	Directive string
	// Plugin and Library name the browser function that must be present.
	Plugin  string
	Library string
	// Defaults are merged under caller options.
	Defaults map[string]any
	// RequiresModel marks widgets that bind a model value.
	RequiresModel bool
	Prepare       PrepareFunc
}

// SkipMessage is the warning logged when the plugin is missing.
func (w Widget) SkipMessage() string {
	return fmt.Sprintf("%s directive skipped: %s function from %s library not available", w.Directive, w.Plugin, w.Library)
}

// Registry keeps widget definitions and which plugins are loaded on the page.
type Registry struct {
	mu        sync.RWMutex
	widgets   map[string]Widget
	available map[string]bool
}

// NewRegistry constructs a registry with the built-in widgets registered and
// every built-in plugin marked available.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	for _, w := range builtins() {
		_ = reg.Register(w)
		reg.MarkAvailable(w.Name)
	}
	return reg
}

// NewEmptyRegistry constructs a registry without any widgets.
func NewEmptyRegistry() *Registry {
	return &Registry{
		widgets:   make(map[string]Widget),
		available: make(map[string]bool),
	}
}

// Register adds or replaces a widget definition. Availability is not changed.
func (r *Registry) Register(w Widget) error {
	if r == nil {
		return errors.New("widgets: registry is nil")
	}
	name := strings.TrimSpace(w.Name)
	if name == "" {
		return errors.New("widgets: widget name is required")
	}
	w.Name = name
	w.Defaults = cloneOptions(w.Defaults)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[name] = w
	return nil
}

// MarkAvailable records that the plugins behind names are loaded.
func (r *Registry) MarkAvailable(names ...string) {
	r.setAvailable(true, names)
}

// MarkUnavailable records that the plugins behind names are missing.
func (r *Registry) MarkUnavailable(names ...string) {
	r.setAvailable(false, names)
}

// SetAvailableOnly marks exactly names as available.
func (r *Registry) SetAvailableOnly(names ...string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.available = make(map[string]bool, len(names))
	r.mu.Unlock()
	r.MarkAvailable(names...)
}

func (r *Registry) setAvailable(state bool, names []string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			r.available[name] = state
		}
	}
}

// Available reports whether the plugin behind name is loaded.
func (r *Registry) Available(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[strings.TrimSpace(name)]
}

// Lookup returns the widget registered under name.
func (r *Registry) Lookup(name string) (Widget, bool) {
	if r == nil {
		return Widget{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[strings.TrimSpace(name)]
	return w, ok
}

// Names lists registered widgets alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.widgets))
	for name := range r.widgets {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// SetDefaults merges defaults into the widget's existing defaults.
func (r *Registry) SetDefaults(name string, defaults map[string]any) error {
	if r == nil {
		return errors.New("widgets: registry is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.widgets[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownWidget, name)
	}
	w.Defaults = Extend(w.Defaults, defaults)
	r.widgets[w.Name] = w
	return nil
}

// Options merges the widget defaults with overrides and runs the widget's
// Prepare hook. Missing plugins yield ErrPluginUnavailable.
func (r *Registry) Options(name string, overrides map[string]any) (map[string]any, error) {
	w, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWidget, name)
	}
	if !r.Available(w.Name) {
		return nil, fmt.Errorf("%w: %s", ErrPluginUnavailable, w.SkipMessage())
	}

	options := Extend(w.Defaults, overrides)
	if w.Prepare != nil {
		prepared, err := w.Prepare(options)
		if err != nil {
			return nil, fmt.Errorf("widgets: prepare %s options: %w", w.Name, err)
		}
		options = prepared
	}
	return options, nil
}

// Extend returns a new map holding base overlaid with each override in turn.
// The merge is shallow: nested maps are replaced, not merged.
func Extend(base map[string]any, overrides ...map[string]any) map[string]any {
	out := cloneOptions(base)
	if out == nil {
		out = make(map[string]any)
	}
	for _, override := range overrides {
		for key, value := range override {
			out[key] = value
		}
	}
	return out
}

func cloneOptions(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
