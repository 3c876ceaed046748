// Package config holds the settings shared by every ccnut binding. The zero
// file is valid: Default() mirrors the library's built-in `{debug: true}`.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ccnut/pkg/logger"
	"github.com/goliatone/go-ccnut/pkg/querystring"
	"github.com/goliatone/go-ccnut/pkg/replace"
	"github.com/goliatone/go-ccnut/pkg/widgets"
)

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ReplaceConfig tunes the text replacer.
type ReplaceConfig struct {
	LiteralPatterns bool `yaml:"literal_patterns" json:"literal_patterns"`
	Expand          bool `yaml:"expand" json:"expand"`
	CacheSize       int  `yaml:"cache_size" json:"cache_size"`
	// Sanitize runs replacement values through an HTML sanitizer before they
	// are inserted into markup.
	Sanitize bool `yaml:"sanitize" json:"sanitize"`
}

// QueryStringConfig tunes parameter decoding.
type QueryStringConfig struct {
	StrictDecode bool `yaml:"strict_decode" json:"strict_decode"`
}

// WidgetsConfig lists the plugins loaded on the page and per-widget default
// overrides.
type WidgetsConfig struct {
	// Available, when set, replaces the built-in availability list.
	Available []string                  `yaml:"available" json:"available"`
	Defaults  map[string]map[string]any `yaml:"defaults" json:"defaults"`
}

// Config is the root configuration document.
type Config struct {
	Debug       bool              `yaml:"debug" json:"debug"`
	Log         LogConfig         `yaml:"log" json:"log"`
	Replace     ReplaceConfig     `yaml:"replace" json:"replace"`
	QueryString QueryStringConfig `yaml:"query_string" json:"query_string"`
	Widgets     WidgetsConfig     `yaml:"widgets" json:"widgets"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debug: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Replace: ReplaceConfig{
			CacheSize: replace.DefaultCacheSize,
		},
	}
}

// FromFile loads configuration from path, picking the decoder by extension
// (.yaml, .yml or .json). Values not present in the file keep their defaults.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("config: unsupported file extension %q", ext)
	}
}

// FromYAML decodes YAML over the defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromJSON decodes JSON over the defaults.
func FromJSON(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse json: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no component can honour.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Replace.CacheSize < 0 {
		return fmt.Errorf("config: replace.cache_size must be >= 0, got %d", c.Replace.CacheSize)
	}
	return nil
}

// NewLogger builds the slog-backed logger described by the configuration.
func (c Config) NewLogger(out io.Writer) *logger.Slog {
	return logger.New(logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Debug:  c.Debug,
		Output: out,
	})
}

// ReplacerOptions translates the replace section into replacer options.
func (c Config) ReplacerOptions(l logger.Logger) []replace.Option {
	return []replace.Option{
		replace.WithLogger(l),
		replace.WithLiteralPatterns(c.Replace.LiteralPatterns),
		replace.WithExpand(c.Replace.Expand),
		replace.WithCacheSize(c.Replace.CacheSize),
	}
}

// ReaderOptions translates the query_string section into reader options.
func (c Config) ReaderOptions(l logger.Logger) []querystring.Option {
	return []querystring.Option{
		querystring.WithLogger(l),
		querystring.WithStrictDecode(c.QueryString.StrictDecode),
	}
}

// ApplyWidgets pushes availability and default overrides into reg.
func (c Config) ApplyWidgets(reg *widgets.Registry) error {
	if reg == nil {
		return nil
	}
	if c.Widgets.Available != nil {
		reg.SetAvailableOnly(c.Widgets.Available...)
	}
	for name, defaults := range c.Widgets.Defaults {
		if err := reg.SetDefaults(name, defaults); err != nil {
			return fmt.Errorf("config: widgets.defaults: %w", err)
		}
	}
	return nil
}
