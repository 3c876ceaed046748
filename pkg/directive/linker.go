// Package directive links ccnut bindings into HTML.
//
// A Linker walks a document or fragment and looks for directive attributes
// (or bare class names):
//
//	ccnut-init-transclude       YAML body merged into the scope before children link
//	ccnut-replace               substitutes patterns in the element's inner HTML
//	ccnut-bs-tooltip            Bootstrap tooltip options
//	ccnut-jquery-ui-datepicker  jQuery UI datepicker options, needs ng-model
//	ccnut-jquery-ui-slider      jQuery UI slider options, needs ng-model
//
// Widget directives do not run the plugins; they write the merged options to
// data-ccnut-widget / data-ccnut-options so a page runtime can initialise
// them. A directive that fails is logged and its element left untouched.
package directive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	theme "github.com/goliatone/go-theme"
	"golang.org/x/net/html"

	"github.com/goliatone/go-ccnut/pkg/logger"
	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/scope"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

// Directive names as written in markup.
const (
	InitTransclude = "ccnut-init-transclude"
	Replace        = "ccnut-replace"
	BsTooltip      = "ccnut-bs-tooltip"
	Datepicker     = "ccnut-jquery-ui-datepicker"
	Slider         = "ccnut-jquery-ui-slider"
)

// Attributes written by widget directives.
const (
	AttrWidget  = "data-ccnut-widget"
	AttrOptions = "data-ccnut-options"
	AttrValue   = "data-ccnut-value"
	AttrModel   = "ng-model"
)

// ErrModelRequired is reported when a model widget has no ng-model attribute.
var ErrModelRequired = errors.New("directive: ng-model is required")

type widgetDirective struct {
	name     string
	widget   string
	attrOnly bool
}

var widgetDirectives = []widgetDirective{
	{name: BsTooltip, widget: widgets.WidgetTooltip, attrOnly: true},
	{name: Datepicker, widget: widgets.WidgetDatepicker},
	{name: Slider, widget: widgets.WidgetSlider},
}

// Option configures a Linker.
type Option func(*Linker)

// WithLogger sets the collaborator that receives link failures.
func WithLogger(l logger.Logger) Option {
	return func(lk *Linker) {
		lk.logger = logger.OrNop(l)
	}
}

// WithReplacer overrides the replacer used by ccnut-replace.
func WithReplacer(r *replace.Replacer) Option {
	return func(lk *Linker) {
		if r != nil {
			lk.replacer = r
		}
	}
}

// WithWidgets overrides the widget registry.
func WithWidgets(reg *widgets.Registry) Option {
	return func(lk *Linker) {
		if reg != nil {
			lk.widgets = reg
		}
	}
}

// WithQuery exposes query-string parameters to bindings under "query".
func WithQuery(reader *querystring.Reader) Option {
	return func(lk *Linker) {
		lk.query = reader
	}
}

// WithSanitizer filters replacement values before they are inserted.
func WithSanitizer(fn func(string) string) Option {
	return func(lk *Linker) {
		lk.sanitize = fn
	}
}

// WithTheme exposes the selected theme to bindings under "theme".
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(lk *Linker) {
		lk.themeSelector = selector
		lk.themeName = name
		lk.themeVariant = variant
	}
}

// Linker applies directives to HTML. It is safe for concurrent use; every
// Link call works on its own copy of the scope.
type Linker struct {
	logger        logger.Logger
	replacer      *replace.Replacer
	widgets       *widgets.Registry
	query         *querystring.Reader
	sanitize      func(string) string
	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// New constructs a Linker with a default replacer and widget registry.
func New(opts ...Option) *Linker {
	lk := &Linker{logger: logger.Nop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(lk)
	}
	if lk.replacer == nil {
		lk.replacer = replace.New(replace.WithLogger(lk.logger))
	}
	if lk.widgets == nil {
		lk.widgets = widgets.NewRegistry()
	}
	return lk
}

// LinkString links markup and returns the rendered result.
func (lk *Linker) LinkString(ctx context.Context, markup string, sc scope.Scope) (string, Report, error) {
	var buf bytes.Buffer
	report, err := lk.Link(ctx, strings.NewReader(markup), &buf, sc)
	if err != nil {
		return "", report, err
	}
	return buf.String(), report, nil
}

// Link reads HTML from r, applies directives and writes the result to w.
// Complete documents (with a doctype or <html> element) are rendered whole;
// anything else is treated as a body fragment.
func (lk *Linker) Link(ctx context.Context, r io.Reader, w io.Writer, sc scope.Scope) (Report, error) {
	var report Report

	data, err := io.ReadAll(r)
	if err != nil {
		return report, fmt.Errorf("directive: read input: %w", err)
	}

	state := &linkState{
		ctx:    ctx,
		scope:  scope.New(sc.Values),
		report: &report,
	}
	if err := lk.seedScope(&state.scope); err != nil {
		lk.logger.Warn(err)
	}

	root, document, err := parseMarkup(data)
	if err != nil {
		return report, err
	}
	if err := lk.visit(state, root); err != nil {
		return report, err
	}
	if err := renderMarkup(w, root, document); err != nil {
		return report, err
	}
	return report, nil
}

type linkState struct {
	ctx    context.Context
	scope  scope.Scope
	report *Report
}

func (lk *Linker) seedScope(sc *scope.Scope) error {
	if lk.query != nil {
		values := make(map[string]any)
		for name, value := range lk.query.Values() {
			values[name] = value
		}
		sc.Merge(map[string]any{"query": values})
	}
	if lk.themeSelector != nil {
		values, err := themeValues(lk.themeSelector, lk.themeName, lk.themeVariant)
		if err != nil {
			return err
		}
		if values != nil {
			sc.Merge(map[string]any{"theme": values})
		}
	}
	return nil
}

// visit links node and its subtree. Pre-link work (init-transclude) runs
// before the children, post-link work after them, so a parent's replacement
// sees the already linked children.
func (lk *Linker) visit(state *linkState, node *html.Node) error {
	if state.ctx != nil {
		if err := state.ctx.Err(); err != nil {
			return err
		}
	}

	if node.Type == html.ElementNode {
		if raw, ok := directiveValue(node, InitTransclude, false); ok {
			lk.linkInitTransclude(state, node, raw)
		}
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if err := lk.visit(state, c); err != nil {
			return err
		}
	}

	if node.Type != html.ElementNode {
		return nil
	}
	if raw, ok := directiveValue(node, Replace, false); ok {
		lk.linkReplace(state, node, raw)
	}
	for _, wd := range widgetDirectives {
		if raw, ok := directiveValue(node, wd.name, wd.attrOnly); ok {
			lk.linkWidget(state, node, wd, raw)
		}
	}
	return nil
}

func (lk *Linker) linkInitTransclude(state *linkState, node *html.Node, _ string) {
	data, err := ParseData(textContent(node))
	if err != nil {
		lk.failed(state, InitTransclude, node, err)
		return
	}
	state.scope.Merge(data)
	state.report.linked(InitTransclude)
}

func (lk *Linker) linkReplace(state *linkState, node *html.Node, raw string) {
	replacements, err := ParseBinding(raw, state.scope)
	if err != nil {
		if errors.Is(err, replace.ErrMalformedMapping) {
			lk.failed(state, Replace, node, err)
		}
		return
	}
	if lk.sanitize != nil {
		replacements = sanitizeValues(replacements, lk.sanitize)
	}

	inner, err := innerHTML(node)
	if err != nil {
		lk.failed(state, Replace, node, err)
		return
	}

	result := lk.replacer.Apply(inner, replacements)
	if result.Err != nil {
		lk.failed(state, Replace, node, result.Err)
		return
	}
	if result.Output != inner {
		if err := setInnerHTML(node, result.Output); err != nil {
			lk.failed(state, Replace, node, err)
			return
		}
	}
	state.report.linked(Replace)
}

func (lk *Linker) linkWidget(state *linkState, node *html.Node, wd widgetDirective, raw string) {
	overrides, err := ParseOptions(raw, state.scope)
	if err != nil {
		lk.failed(state, wd.name, node, err)
		return
	}

	options, err := lk.widgets.Options(wd.widget, overrides)
	if err != nil {
		if errors.Is(err, widgets.ErrPluginUnavailable) {
			if w, ok := lk.widgets.Lookup(wd.widget); ok {
				lk.logger.Warn(w.SkipMessage())
			}
			return
		}
		lk.failed(state, wd.name, node, err)
		return
	}

	w, _ := lk.widgets.Lookup(wd.widget)
	var model any
	if w.RequiresModel {
		path, ok := attr(node, AttrModel)
		if !ok || strings.TrimSpace(path) == "" {
			lk.failed(state, wd.name, node, ErrModelRequired)
			return
		}
		model, _ = state.scope.Lookup(path)
	}

	payload, err := json.Marshal(options)
	if err != nil {
		lk.failed(state, wd.name, node, fmt.Errorf("directive: encode options: %w", err))
		return
	}
	setAttr(node, AttrWidget, w.Name)
	setAttr(node, AttrOptions, string(payload))

	switch wd.widget {
	case widgets.WidgetDatepicker:
		lk.renderDatepickerValue(node, model, options)
	case widgets.WidgetSlider:
		setAttr(node, AttrValue, widgets.FormatNumber(widgets.SliderValue(model, options)))
	}
	state.report.linked(wd.name)
}

func (lk *Linker) renderDatepickerValue(node *html.Node, model any, options map[string]any) {
	value := widgets.DatepickerValue(model, options)
	setAttr(node, "value", value)
	if value == "" {
		return
	}
	format, _ := options["dateFormat"].(string)
	day, err := widgets.ParseDate(value, format)
	if err != nil {
		lk.logger.Warn("ccnutJqueryUiDatepicker:", err)
		return
	}
	if err := widgets.CheckDateRange(day, options); err != nil {
		lk.logger.Warn("ccnutJqueryUiDatepicker:", err)
	}
}

func (lk *Linker) failed(state *linkState, directive string, node *html.Node, err error) {
	state.report.fail(directive, node.Data, err)
	lk.logger.Log(directive+":", err)
}

func sanitizeValues(in replace.Map, sanitize func(string) string) replace.Map {
	out := make(replace.Map, 0, len(in))
	for _, pair := range in {
		if s, ok := pair.Value.(string); ok {
			pair.Value = sanitize(s)
		}
		out = append(out, pair)
	}
	return out
}
