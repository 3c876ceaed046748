package gotemplate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/render/template"
	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

const (
	// ReplaceFunc is the per-engine replace function, bound to the replacer
	// given with WithReplacer:
	//
	//	{{ replace(body, mapping) }}
	//	{{ replace(body, "{'%name%': 'Ada'}") }}
	ReplaceFunc = "replace"
	// ReplaceFilter is the filter form of ReplaceFunc. pongo2 filters are
	// process wide and cannot see the engine, so the filter always uses
	// replace.Default():
	//
	//	{{ body|ccnut_replace:mapping }}
	ReplaceFilter = "ccnut_replace"
	// QueryParamFunc is the global bound to the query-string reader:
	//
	//	{{ query_param("page", "1") }}
	QueryParamFunc = "query_param"
	// SanitizeFilter strips unsafe markup and marks the result safe.
	SanitizeFilter = "ccnut_sanitize"
	// DateFilter formats a time or RFC 3339 / YYYY-MM-DD string with a
	// datepicker format: {{ when|ccnut_date:"dd/mm/yy" }}.
	DateFilter = "ccnut_date"
)

// Option configures the go-template adapter before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	funcs      map[string]any
	globalData map[string]any
	replacer   *replace.Replacer
	query      *querystring.Reader
	preHooks   []gotemplatepkg.PreHook
	postHooks  []gotemplatepkg.PostHook
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the ".tpl" extension appended to template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplateFunc exposes helpers to this engine's templates. Functions are
// set as globals; pongo2.FilterFunction values are registered as filters,
// which pongo2 shares across every engine.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if cfg.funcs == nil {
			cfg.funcs = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			if name = strings.TrimSpace(name); name != "" && fn != nil {
				cfg.funcs[name] = fn
			}
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithReplacer binds ReplaceFunc to r. Without it the engine uses
// replace.Default().
func WithReplacer(r *replace.Replacer) Option {
	return func(cfg *config) {
		cfg.replacer = r
	}
}

// WithQuery exposes reader.GetParam to templates as query_param.
func WithQuery(reader *querystring.Reader) Option {
	return func(cfg *config) {
		cfg.query = reader
	}
}

// WithPreHooks runs hooks before each render. A hook may swap the data or
// the template name.
func WithPreHooks(hooks ...gotemplatepkg.PreHook) Option {
	return func(cfg *config) {
		cfg.preHooks = append(cfg.preHooks, hooks...)
	}
}

// WithPostHooks runs hooks over each rendered output, in order.
func WithPostHooks(hooks ...gotemplatepkg.PostHook) Option {
	return func(cfg *config) {
		cfg.postHooks = append(cfg.postHooks, hooks...)
	}
}

// Engine renders pongo2 templates with the ccnut helpers installed. The
// replace function and query_param are scoped to the engine; the ccnut_*
// filters are process wide.
type Engine struct {
	mu sync.RWMutex

	set      *pongo2.TemplateSet
	compiled map[string]*pongo2.Template
	ext      string
	replacer *replace.Replacer
	hooks    *gotemplatepkg.HookManager
}

var (
	_ template.TemplateRenderer = (*Engine)(nil)
	_ gotemplatepkg.Renderer    = (*Engine)(nil)
)

// New constructs an Engine. A base directory or an fs.FS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("gotemplate: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	e := &Engine{
		set:      pongo2.NewSet("ccnut", loaders...),
		compiled: make(map[string]*pongo2.Template),
		ext:      cfg.extension,
		replacer: cfg.replacer,
		hooks:    gotemplatepkg.NewHooksManager(),
	}
	if e.replacer == nil {
		e.replacer = replace.Default()
	}
	for _, hook := range cfg.preHooks {
		e.hooks.AddPreHook(hook)
	}
	for _, hook := range cfg.postHooks {
		e.hooks.AddPostHook(hook)
	}
	registerFilters()

	if err := e.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("gotemplate: apply global data: %w", err)
	}
	funcs := map[string]any{ReplaceFunc: e.replaceFunc}
	if cfg.query != nil {
		funcs[QueryParamFunc] = cfg.query.GetParam
	}
	for name, fn := range cfg.funcs {
		funcs[name] = fn
	}
	for name, fn := range funcs {
		if err := e.addFunc(name, fn); err != nil {
			return nil, fmt.Errorf("gotemplate: register template func %q: %w", name, err)
		}
	}
	return e, nil
}

// Render renders name as inline content when it contains template syntax,
// otherwise as a template file.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate loads name from the configured sources, appending the
// engine extension when name lacks it. Compiled templates are cached.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	return e.run(&gotemplatepkg.HookContext{TemplateName: name, Data: data}, out, func(hc *gotemplatepkg.HookContext) (*pongo2.Template, error) {
		path := hc.TemplateName
		if !strings.HasSuffix(path, e.ext) {
			path += e.ext
		}
		return e.load(path)
	})
}

// RenderString renders inline template content.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	return e.RenderNamed("", templateContent, data, out...)
}

// RenderNamed renders inline content that came from the file name. The name
// is handed to hooks as HookContext.TemplateName; content is never cached.
func (e *Engine) RenderNamed(name, content string, data any, out ...io.Writer) (string, error) {
	hc := &gotemplatepkg.HookContext{TemplateName: name, Template: content, Data: data}
	return e.run(hc, out, func(hc *gotemplatepkg.HookContext) (*pongo2.Template, error) {
		tmpl, err := e.set.FromString(hc.Template)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: parse template string: %w", err)
		}
		return tmpl, nil
	})
}

func (e *Engine) run(hc *gotemplatepkg.HookContext, out []io.Writer, load func(*gotemplatepkg.HookContext) (*pongo2.Template, error)) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}

	hc.Metadata = map[string]any{"ext": e.ext}
	hc.IsPreHook = true
	for _, hook := range e.hooks.PreHooks() {
		if err := hook(hc); err != nil {
			return "", fmt.Errorf("gotemplate: pre hook: %w", err)
		}
	}
	hc.IsPreHook = false

	tmpl, err := load(hc)
	if err != nil {
		return "", err
	}
	viewContext, err := toContext(hc.Data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		if hc.TemplateName != "" {
			return "", fmt.Errorf("gotemplate: execute template %q: %w", hc.TemplateName, err)
		}
		return "", fmt.Errorf("gotemplate: execute template string: %w", err)
	}

	hc.Output = buf.String()
	for _, hook := range e.hooks.PostHooks() {
		rendered, err := hook(hc)
		if err != nil {
			return "", fmt.Errorf("gotemplate: post hook: %w", err)
		}
		hc.Output = rendered
	}

	for _, w := range out {
		if _, err := io.WriteString(w, hc.Output); err != nil {
			return "", err
		}
	}
	return hc.Output, nil
}

// RegisterFilter adapts fn to a pongo2 filter. Filters are process wide, so
// registering a name twice fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.set == nil {
		return errors.New("gotemplate: engine is nil")
	}
	if data == nil {
		return nil
	}
	globals, err := toContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context)
	}
	e.set.Globals.Update(globals)
	return nil
}

func (e *Engine) addFunc(name string, fn any) error {
	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(name) {
			return nil
		}
		return pongo2.RegisterFilter(name, filter)
	}
	if !isCallable(fn) {
		return fmt.Errorf("gotemplate: %T is not a function", fn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context)
	}
	e.set.Globals[name] = fn
	return nil
}

func (e *Engine) load(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.compiled[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.compiled[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load template %q: %w", path, err)
	}
	e.compiled[path] = tmpl
	return tmpl, nil
}

func (e *Engine) replaceFunc(in, mapping *pongo2.Value) *pongo2.Value {
	return pongo2.AsValue(replaceValue(e.replacer, in, mapping))
}

// replaceValue never fails: mapping text that is not a mapping leaves the
// input as is, malformed text is logged by r.
func replaceValue(r *replace.Replacer, in, mapping *pongo2.Value) string {
	markup := in.String()
	if mapping == nil || mapping.IsNil() {
		return markup
	}
	if text, ok := mapping.Interface().(string); ok {
		return r.ReplaceText(markup, text)
	}
	return r.Replace(markup, mapping.Interface())
}

// toContext converts data through go-template's JSON round trip. Functions
// in a top-level map are kept as is so they stay callable.
func toContext(data any) (pongo2.Context, error) {
	var values map[string]any
	switch v := data.(type) {
	case pongo2.Context:
		values = v
	case map[string]any:
		values = v
	default:
		return gotemplatepkg.ConvertToContext(data)
	}

	plain := make(map[string]any, len(values))
	funcs := make(pongo2.Context)
	for key, value := range values {
		if key = strings.TrimSpace(key); key == "" {
			continue
		}
		if isCallable(value) {
			funcs[key] = value
			continue
		}
		plain[key] = value
	}
	out, err := gotemplatepkg.ConvertToContext(plain)
	if err != nil {
		return nil, err
	}
	out.Update(funcs)
	return out, nil
}

func isCallable(v any) bool {
	return v != nil && reflect.ValueOf(v).Kind() == reflect.Func
}

func registerFilters() {
	filters := map[string]pongo2.FilterFunction{
		ReplaceFilter:  filterReplace,
		SanitizeFilter: filterSanitize,
		DateFilter:     filterDate,
	}
	for name, fn := range filters {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}

func filterReplace(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(replaceValue(replace.Default(), in, param)), nil
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(widgets.SanitizeHTML(in.String())), nil
}

// filterDate leaves input it cannot read as a date untouched.
func filterDate(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var format string
	if param != nil && !param.IsNil() {
		format = param.String()
	}

	var when time.Time
	switch v := in.Interface().(type) {
	case time.Time:
		when = v
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			if parsed, err = time.Parse(time.DateOnly, v); err != nil {
				return in, nil
			}
		}
		when = parsed
	default:
		return in, nil
	}
	return pongo2.AsValue(widgets.FormatDate(when, format)), nil
}
