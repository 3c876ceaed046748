package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-ccnut/pkg/prompt"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func newSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site", "index.html"),
		`<h1 ccnut-replace="{'%name%': user.name}">Hello %name%</h1>`)
	writeFile(t, filepath.Join(dir, "site", "pages", "about.tpl"),
		`<h2>{{ title }}</h2><p ccnut-replace="{'%q%': query.q}">q=%q%</p>`+
			`<footer>{{ page.path }} {{ lookup("user.name") }}{% if truthy(lookup("missing")) %}!{% endif %}</footer>`)
	writeFile(t, filepath.Join(dir, "site", "notes.txt"), "skip me")
	writeFile(t, filepath.Join(dir, "scope.yaml"), "user:\n  name: Jurgen\ntitle: About\n")
	writeFile(t, filepath.Join(dir, "ccnut.yaml"), "log:\n  level: error\n")
	return dir
}

func TestRun_WritesOutputTree(t *testing.T) {
	dir := newSite(t)
	out := filepath.Join(dir, "out")

	err := Run(context.Background(), Options{
		Input:      filepath.Join(dir, "site", "**", "*.{html,tpl}"),
		ScopePath:  filepath.Join(dir, "scope.yaml"),
		ConfigPath: filepath.Join(dir, "ccnut.yaml"),
		Query:      "?q=go+lang",
		OutDir:     out,
		Stderr:     &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := readFile(t, filepath.Join(out, "index.html")); !strings.Contains(got, ">Hello Jurgen</h1>") {
		t.Fatalf("index output: %s", got)
	}
	about := readFile(t, filepath.Join(out, "pages", "about.html"))
	if !strings.Contains(about, "<h2>About</h2>") || !strings.Contains(about, ">q=go lang</p>") ||
		!strings.Contains(about, "<footer>pages/about.tpl Jurgen</footer>") {
		t.Fatalf("about output: %s", about)
	}
	if _, err := os.Stat(filepath.Join(out, "notes.txt")); !os.IsNotExist(err) {
		t.Fatalf("unexpected output for non-matching file")
	}
}

func TestRun_Stdout(t *testing.T) {
	dir := newSite(t)
	var stdout bytes.Buffer

	err := Run(context.Background(), Options{
		Input:     filepath.Join(dir, "site", "index.html"),
		ScopePath: filepath.Join(dir, "scope.yaml"),
		Stdout:    &stdout,
		Stderr:    &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), ">Hello Jurgen</h1>") {
		t.Fatalf("stdout: %s", stdout.String())
	}
}

func TestRun_NoInput(t *testing.T) {
	dir := t.TempDir()
	err := Run(context.Background(), Options{Input: filepath.Join(dir, "*.html"), Stderr: &bytes.Buffer{}})
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestRun_BadScope(t *testing.T) {
	dir := newSite(t)
	writeFile(t, filepath.Join(dir, "bad.yaml"), "user: [unclosed")
	err := Run(context.Background(), Options{
		Input:     filepath.Join(dir, "site", "index.html"),
		ScopePath: filepath.Join(dir, "bad.yaml"),
		Stderr:    &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "parse scope") {
		t.Fatalf("expected scope parse error, got %v", err)
	}
}

type answers struct {
	inputs    []string
	selected  []int
	overwrite bool
	confirms  int
}

func (a *answers) Input(context.Context, prompt.InputConfig) (string, error) {
	if len(a.inputs) == 0 {
		return "", nil
	}
	next := a.inputs[0]
	a.inputs = a.inputs[1:]
	return next, nil
}

func (a *answers) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	a.confirms++
	return a.overwrite, nil
}

func (a *answers) MultiSelect(context.Context, prompt.SelectConfig) ([]int, error) {
	return a.selected, nil
}

func (a *answers) Info(context.Context, string) error { return nil }

func TestRun_Interactive(t *testing.T) {
	dir := newSite(t)
	out := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(out, "index.html"), "keep")

	driver := &answers{inputs: []string{"Ada"}, selected: []int{0, 1, 2}, overwrite: false}
	err := Run(context.Background(), Options{
		Input:       filepath.Join(dir, "site", "**", "*.{html,tpl}"),
		OutDir:      out,
		Interactive: true,
		Driver:      driver,
		Stderr:      &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := readFile(t, filepath.Join(out, "index.html")); got != "keep" {
		t.Fatalf("declined overwrite was written: %s", got)
	}
	if driver.confirms != 1 {
		t.Fatalf("expected one overwrite prompt, got %d", driver.confirms)
	}
	// query.q sorts before user.name, so the first answer fills query.q.
	about := readFile(t, filepath.Join(out, "pages", "about.html"))
	if !strings.Contains(about, ">q=Ada</p>") {
		t.Fatalf("prompted value not used: %s", about)
	}
}

func TestRunner_OutputPath(t *testing.T) {
	r := &Runner{opts: Options{OutDir: "dist"}, base: "site"}

	tests := map[string]string{
		filepath.Join("site", "index.html"):         filepath.Join("dist", "index.html"),
		filepath.Join("site", "pages", "about.tpl"): filepath.Join("dist", "pages", "about.html"),
		filepath.Join("elsewhere", "x.tmpl"):        filepath.Join("dist", "x.html"),
	}
	for in, want := range tests {
		if got := r.OutputPath(in); got != want {
			t.Fatalf("OutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}
