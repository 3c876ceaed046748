package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlog_LevelsAndMethods(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Log("hello", "world")
	log.Warn("careful")
	log.Error(errors.New("boom"))

	out := buf.String()
	for _, want := range []string{
		"msg=\"hello world\"",
		"method=log",
		"level=WARN",
		"msg=careful",
		"level=ERROR",
		"error=boom",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSlog_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf})
	log.Info("ready")

	if !strings.Contains(buf.String(), `"msg":"ready"`) {
		t.Fatalf("expected json output, got %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})
	Component(base, "replace").Warn("bad pattern")

	if !strings.Contains(buf.String(), `"component":"replace"`) {
		t.Fatalf("expected component attribute, got %s", buf.String())
	}

	buf.Reset()
	base.Warn("untagged")
	if strings.Contains(buf.String(), "component") {
		t.Fatalf("expected base logger to stay untagged, got %s", buf.String())
	}

	rec := NewRecorder()
	if Component(rec, "replace") != Logger(rec) {
		t.Fatalf("expected non-slog loggers to pass through")
	}
	if Component(nil, "replace") == nil {
		t.Fatalf("expected nil logger to fall back to nop")
	}
}

func TestFromSlog(t *testing.T) {
	var buf bytes.Buffer
	log := FromSlog(slog.New(slog.NewTextHandler(&buf, nil)), true)
	log.Dir([]string{"a"}, "list")
	if !strings.Contains(buf.String(), "list:") {
		t.Fatalf("expected dir output through wrapped logger, got %s", buf.String())
	}
	if FromSlog(nil, false) == nil {
		t.Fatalf("expected slog.Default fallback")
	}
}

func TestSlog_DirRespectsDebug(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(Config{Output: &buf})
	quiet.Dir(map[string]any{"name": "Jurgen"}, "user")
	if buf.Len() != 0 {
		t.Fatalf("expected no dir output without debug, got %s", buf.String())
	}

	loud := New(Config{Output: &buf, Debug: true})
	loud.Dir(map[string]any{"name": "Jurgen"}, "user")
	out := buf.String()
	if !strings.Contains(out, "user:") || !strings.Contains(out, "name: Jurgen") {
		t.Fatalf("unexpected dir output: %s", out)
	}
}

func TestSlog_DebugLevelFiltered(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %s", buf.String())
	}
}

func TestRecorder_Messages(t *testing.T) {
	rec := NewRecorder()
	rec.Log("a", 1)
	rec.Warn("b")
	rec.Log("c")
	rec.Dir([]string{"x"}, "list")

	if diff := cmp.Diff([]string{"a 1", "c"}, rec.Messages("log")); diff != "" {
		t.Fatalf("log messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"list:\n- x"}, rec.Messages("dir")); diff != "" {
		t.Fatalf("dir messages mismatch (-want +got):\n%s", diff)
	}

	rec.Reset()
	if len(rec.Entries()) != 0 {
		t.Fatalf("expected reset to clear entries")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
	rec := NewRecorder()
	if OrNop(rec) != rec {
		t.Fatalf("expected passthrough")
	}
}
