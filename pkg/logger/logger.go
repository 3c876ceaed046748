// Package logger provides the logging collaborator injected into the ccnut
// bindings. The contract mirrors a browser console: leveled messages plus a
// Dir helper that dumps a value hierarchically.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Logger receives leveled messages and structured dumps. Implementations must
// be safe for concurrent use.
type Logger interface {
	Log(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Dir(obj any, title string)
}

// Config controls the slog-backed logger.
type Config struct {
	// Level is one of debug, info, warn or error. Defaults to info.
	Level string `yaml:"level" json:"level"`
	// Format selects the slog handler: "text" (default) or "json".
	Format string `yaml:"format" json:"format"`
	// Debug enables Dir output.
	Debug bool `yaml:"debug" json:"debug"`
	// Output defaults to os.Stderr.
	Output io.Writer `yaml:"-" json:"-"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Debug:  true,
		Output: os.Stderr,
	}
}

// Slog adapts a *slog.Logger to the Logger contract.
type Slog struct {
	logger *slog.Logger
	debug  bool
}

var _ Logger = (*Slog)(nil)

// New builds a Slog logger from cfg.
func New(cfg Config) *Slog {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Slog{logger: slog.New(handler), debug: cfg.Debug}
}

// FromSlog wraps an existing slog logger. A nil logger falls back to
// slog.Default().
func FromSlog(l *slog.Logger, debug bool) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{logger: l, debug: debug}
}

// ForComponent returns a copy tagged with a component attribute.
func (s *Slog) ForComponent(component string) *Slog {
	if s == nil {
		return nil
	}
	return &Slog{logger: s.logger.With("component", component), debug: s.debug}
}

// Component tags l with a component attribute when it is a *Slog. Other
// loggers are returned as is.
func Component(l Logger, name string) Logger {
	if s, ok := l.(*Slog); ok && s != nil {
		return s.ForComponent(name)
	}
	return OrNop(l)
}

func (s *Slog) Log(args ...any)   { s.emit(slog.LevelInfo, "log", args) }
func (s *Slog) Info(args ...any)  { s.emit(slog.LevelInfo, "info", args) }
func (s *Slog) Warn(args ...any)  { s.emit(slog.LevelWarn, "warn", args) }
func (s *Slog) Error(args ...any) { s.emit(slog.LevelError, "error", args) }

// Dir writes a YAML rendering of obj. When title is non-empty it is logged
// first, followed by the dump. Dir is silent unless debug output is enabled.
func (s *Slog) Dir(obj any, title string) {
	if s == nil || !s.debug {
		return
	}
	if title = strings.TrimSpace(title); title != "" {
		s.logger.Info(title + ":")
	}
	s.logger.Info(Dump(obj), "method", "dir")
}

func (s *Slog) emit(level slog.Level, method string, args []any) {
	if s == nil || s.logger == nil {
		return
	}
	msg, attrs := splitArgs(args)
	attrs = append(attrs, "method", method)
	s.logger.Log(context.Background(), level, msg, attrs...)
}

// splitArgs turns console-style arguments into a message plus slog attrs.
// Errors become an "error" attribute; every other argument is joined into the
// message.
func splitArgs(args []any) (string, []any) {
	parts := make([]string, 0, len(args))
	var attrs []any
	for _, arg := range args {
		if err, ok := arg.(error); ok && err != nil {
			attrs = append(attrs, "error", err.Error())
			if len(parts) == 0 {
				parts = append(parts, err.Error())
			}
			continue
		}
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.Join(parts, " "), attrs
}

// Dump renders obj as YAML, falling back to fmt formatting when the value
// cannot be marshalled.
func Dump(obj any) string {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("%+v", obj)
	}
	return strings.TrimRight(string(data), "\n")
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nop struct{}

func (nop) Log(...any)      {}
func (nop) Info(...any)     {}
func (nop) Warn(...any)     {}
func (nop) Error(...any)    {}
func (nop) Dir(any, string) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nop{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
