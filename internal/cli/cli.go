// Package cli implements the ccnut command: render templates, link
// directives and write the results, optionally watching or serving them.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	gotemplatepkg "github.com/goliatone/go-template"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ccnut"
	"github.com/goliatone/go-ccnut/internal/watch"
	"github.com/goliatone/go-ccnut/pkg/config"
	"github.com/goliatone/go-ccnut/pkg/directive"
	"github.com/goliatone/go-ccnut/pkg/prompt"
	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/render/template/gotemplate"
	"github.com/goliatone/go-ccnut/pkg/scope"
)

// ErrNoInput is returned when the input pattern matches no files.
var ErrNoInput = errors.New("cli: no input files matched")

// templateExtensions are rendered through the template engine before
// linking; the output keeps the name with a .html extension.
var templateExtensions = map[string]bool{".tpl": true, ".tmpl": true}

// Options mirrors the command-line flags.
type Options struct {
	Input       string
	ScopePath   string
	ConfigPath  string
	Query       string
	OutDir      string
	Watch       bool
	Interactive bool
	Serve       string

	Stdout io.Writer
	Stderr io.Writer
	// Driver answers interactive prompts; nil uses the survey terminal driver.
	Driver prompt.Driver
}

// Runner holds the state shared by one invocation.
type Runner struct {
	opts      Options
	engine    *ccnut.Engine
	scope     scope.Scope
	base      string
	templates *gotemplate.Engine
	driver    prompt.Driver
}

// Run executes a single invocation and blocks while watching or serving.
func Run(ctx context.Context, opts Options) error {
	r, err := NewRunner(opts)
	if err != nil {
		return err
	}
	if opts.Serve != "" {
		return r.Serve(ctx)
	}

	files, err := r.Inputs()
	if err != nil {
		return err
	}
	if opts.Interactive {
		if err := r.Prompt(ctx, files); err != nil {
			return err
		}
	}
	if err := r.ProcessAll(ctx, files); err != nil {
		return err
	}
	if opts.Watch {
		return r.Watch(ctx)
	}
	return nil
}

// NewRunner loads configuration and scope and builds the engine.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.FromFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	engine, err := ccnut.New(cfg, ccnut.WithLogOutput(opts.Stderr))
	if err != nil {
		return nil, err
	}

	sc, err := LoadScope(opts.ScopePath)
	if err != nil {
		return nil, err
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(opts.Input))
	if base == "" {
		base = "."
	}

	return &Runner{
		opts:   opts,
		engine: engine,
		scope:  sc,
		base:   filepath.FromSlash(base),
	}, nil
}

// LoadScope reads a YAML or JSON document of scope values. An empty path
// yields an empty scope.
func LoadScope(path string) (scope.Scope, error) {
	if strings.TrimSpace(path) == "" {
		return scope.Scope{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return scope.Scope{}, fmt.Errorf("cli: read scope: %w", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return scope.Scope{}, fmt.Errorf("cli: parse scope %s: %w", path, err)
	}
	return scope.New(values), nil
}

// Inputs expands the input pattern.
func (r *Runner) Inputs() ([]string, error) {
	if strings.TrimSpace(r.opts.Input) == "" {
		return nil, ErrNoInput
	}
	files, err := doublestar.FilepathGlob(r.opts.Input, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("cli: input pattern %q: %w", r.opts.Input, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, r.opts.Input)
	}
	return files, nil
}

// Prompt asks which plugins are loaded and fills in scope values the inputs
// reference but the scope file does not provide.
func (r *Runner) Prompt(ctx context.Context, files []string) error {
	driver := r.promptDriver()
	if err := prompt.SelectPlugins(ctx, driver, r.engine.Widgets()); err != nil {
		return err
	}

	seen := make(map[string]bool)
	var refs []string
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("cli: %w", err)
		}
		found, err := directive.References(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("cli: scan %s: %w", file, err)
		}
		for _, ref := range found {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}

	sort.Strings(refs)

	sc, err := prompt.CollectScope(ctx, driver, refs, r.scope)
	if err != nil {
		return err
	}
	r.scope = sc
	return nil
}

func (r *Runner) promptDriver() prompt.Driver {
	if r.driver == nil {
		r.driver = r.opts.Driver
	}
	if r.driver == nil {
		r.driver = prompt.NewSurveyDriver(r.opts.Stdout)
	}
	return r.driver
}

// ProcessAll links every file, stopping at the first hard error.
func (r *Runner) ProcessAll(ctx context.Context, files []string) error {
	for _, file := range files {
		if err := r.Process(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// Process renders (for templates) and links one file, then writes it to the
// output directory or stdout.
func (r *Runner) Process(ctx context.Context, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("cli: %w", err)
	}

	source := querystring.Static(r.opts.Query)
	if templateExtensions[filepath.Ext(file)] {
		rendered, err := r.render(file, string(data), source)
		if err != nil {
			return fmt.Errorf("cli: render %s: %w", file, err)
		}
		data = []byte(rendered)
	}

	var out bytes.Buffer
	report, err := r.engine.Link(ctx, bytes.NewReader(data), &out, r.scope, source)
	if err != nil {
		return fmt.Errorf("cli: link %s: %w", file, err)
	}
	log := r.engine.Logger()
	if report.OK() {
		log.Info("linked", file, report.String())
	} else {
		log.Warn("linked with failures", file, report.String())
	}

	if r.opts.OutDir == "" {
		_, err := r.opts.Stdout.Write(out.Bytes())
		return err
	}
	return r.write(ctx, file, out.Bytes())
}

func (r *Runner) render(file, content string, source querystring.Source) (string, error) {
	if r.templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithBaseDir(r.base),
			gotemplate.WithReplacer(r.engine.Replacer()),
			gotemplate.WithQuery(r.engine.Reader(source)),
			gotemplate.WithTemplateFunc(r.scopeFuncs()),
			gotemplate.WithPreHooks(pageHook),
		)
		if err != nil {
			return "", err
		}
		r.templates = engine
	}
	return r.templates.RenderNamed(r.relPath(file), content, r.scope.Values)
}

// scopeFuncs lets templates read scope paths the way bindings do, including
// keys that contain dots. They read the runner's scope at call time so
// answers collected by Prompt are visible.
func (r *Runner) scopeFuncs() map[string]any {
	return map[string]any{
		"lookup": func(key string) any {
			value, _ := r.scope.Lookup(key)
			return value
		},
		"truthy": scope.Truthy,
	}
}

// pageHook exposes the input being rendered as page.path and page.name.
func pageHook(hc *gotemplatepkg.HookContext) error {
	if hc.TemplateName == "" {
		return nil
	}
	values, _ := hc.Data.(map[string]any)
	data := make(map[string]any, len(values)+1)
	maps.Copy(data, values)

	rel := filepath.ToSlash(hc.TemplateName)
	data["page"] = map[string]any{
		"path": rel,
		"name": strings.TrimSuffix(path.Base(rel), path.Ext(rel)),
	}
	hc.Data = data
	return nil
}

func (r *Runner) relPath(file string) string {
	rel, err := filepath.Rel(r.base, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(file)
	}
	return rel
}

// OutputPath maps an input file to its location under the output directory.
func (r *Runner) OutputPath(file string) string {
	rel := r.relPath(file)
	if ext := filepath.Ext(rel); templateExtensions[ext] {
		rel = strings.TrimSuffix(rel, ext) + ".html"
	}
	return filepath.Join(r.opts.OutDir, rel)
}

func (r *Runner) write(ctx context.Context, file string, data []byte) error {
	target := r.OutputPath(file)
	if r.opts.Interactive && !r.opts.Watch {
		if _, err := os.Stat(target); err == nil {
			ok, err := prompt.ConfirmOverwrite(ctx, r.promptDriver(), target)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("cli: %w", err)
	}
	return nil
}

// Watch re-processes inputs as they change until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context) error {
	_, pattern := doublestar.SplitPattern(filepath.ToSlash(r.opts.Input))
	var ignore []string
	if r.opts.OutDir != "" {
		if rel, err := filepath.Rel(r.base, r.opts.OutDir); err == nil && !strings.HasPrefix(rel, "..") {
			ignore = append(ignore, filepath.ToSlash(rel)+"/**")
		}
	}

	w, err := watch.New(r.base, watch.Config{Pattern: pattern, Ignore: ignore}, func(path string) {
		if err := r.Process(ctx, path); err != nil {
			r.engine.Logger().Error("watch:", err)
		}
	}, r.engine.Logger())
	if err != nil {
		return fmt.Errorf("cli: watch %s: %w", r.base, err)
	}
	r.engine.Logger().Info("watching", r.base, pattern)
	return w.Run(ctx)
}

// Serve links the files under the input base directory per request until
// ctx is cancelled.
func (r *Runner) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              r.opts.Serve,
		Handler:           r.engine.Handler(os.DirFS(r.base), r.scope),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		r.engine.Logger().Info("serving", r.base, "on", r.opts.Serve)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
