// Package ccnut links ccnut UI bindings into HTML on the server.
//
// An Engine wires the pieces configured by pkg/config: the pattern replacer
// behind ccnut-replace, the query-string reader exposed to bindings, and the
// widget registry for the tooltip, datepicker and slider directives.
//
//	cfg, _ := config.FromFile("ccnut.yaml")
//	engine, _ := ccnut.New(cfg)
//	report, err := engine.Link(ctx, in, out, sc, querystring.Static("?page=2"))
package ccnut

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-ccnut/pkg/config"
	"github.com/goliatone/go-ccnut/pkg/directive"
	"github.com/goliatone/go-ccnut/pkg/logger"
	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/scope"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

// Report aliases directive.Report so callers need not import the directive
// package for the common path.
type Report = directive.Report

// Option customises an Engine.
type Option func(*Engine)

// WithLogger overrides the logger built from the configuration.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSlog routes engine logging through an existing slog logger. Dir output
// follows the configuration's debug flag.
func WithSlog(l *slog.Logger) Option {
	return func(e *Engine) {
		e.slog = l
	}
}

// WithLogOutput sends the configured logger's output to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.logOutput = w
	}
}

// WithTheme exposes a go-theme selection to bindings under theme.*.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(e *Engine) {
		e.themeSelector = selector
		e.themeName = name
		e.themeVariant = variant
	}
}

// Engine holds the configured collaborators. It is safe for concurrent use.
type Engine struct {
	cfg       config.Config
	logger    logger.Logger
	logOutput io.Writer
	slog      *slog.Logger
	replacer  *replace.Replacer
	widgets   *widgets.Registry

	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// New validates cfg and builds an Engine.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	switch {
	case e.logger != nil:
	case e.slog != nil:
		e.logger = logger.FromSlog(e.slog, cfg.Debug)
	default:
		e.logger = cfg.NewLogger(e.logOutput)
	}

	e.replacer = replace.New(cfg.ReplacerOptions(logger.Component(e.logger, "replace"))...)
	e.widgets = widgets.NewRegistry()
	if err := cfg.ApplyWidgets(e.widgets); err != nil {
		return nil, fmt.Errorf("ccnut: %w", err)
	}
	return e, nil
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() config.Config { return e.cfg }

// Logger returns the engine logger.
func (e *Engine) Logger() logger.Logger { return e.logger }

// Replacer returns the shared replacer.
func (e *Engine) Replacer() *replace.Replacer { return e.replacer }

// Widgets returns the widget registry. Availability changes apply to every
// later Link call.
func (e *Engine) Widgets() *widgets.Registry { return e.widgets }

// Reader builds a query-string reader over source with the configured decode
// mode.
func (e *Engine) Reader(source querystring.Source) *querystring.Reader {
	return querystring.New(source, e.cfg.ReaderOptions(logger.Component(e.logger, "querystring"))...)
}

// Linker builds a directive linker whose bindings can read source's
// parameters under query.*.
func (e *Engine) Linker(source querystring.Source) *directive.Linker {
	opts := []directive.Option{
		directive.WithLogger(logger.Component(e.logger, "directive")),
		directive.WithReplacer(e.replacer),
		directive.WithWidgets(e.widgets),
	}
	if source != nil {
		opts = append(opts, directive.WithQuery(e.Reader(source)))
	}
	if e.cfg.Replace.Sanitize {
		opts = append(opts, directive.WithSanitizer(widgets.SanitizeHTML))
	}
	if e.themeSelector != nil {
		opts = append(opts, directive.WithTheme(e.themeSelector, e.themeName, e.themeVariant))
	}
	return directive.New(opts...)
}

// Link applies directives to the HTML read from r and writes the result to w.
func (e *Engine) Link(ctx context.Context, r io.Reader, w io.Writer, sc scope.Scope, source querystring.Source) (Report, error) {
	return e.Linker(source).Link(ctx, r, w, sc)
}

// Replace applies replacements to markup with the package default replacer.
// Failures are logged and markup is returned unchanged.
func Replace(markup string, replacements any) string {
	return replace.Replace(markup, replacements)
}

// GetParam reads name from a raw query string such as "?page=2".
func GetParam(query, name string, defaultValue ...string) string {
	return querystring.New(querystring.Static(query)).GetParam(name, defaultValue...)
}
