// Package querystring reads parameters out of a URL query string.
//
// Lookups run a pattern of the form [?&]name=([^&#]+) against the ambient
// query string, turn "+" into spaces and percent-decode the capture. The
// Reader keeps no state between calls; the only input besides the arguments
// is whatever the Source returns.
package querystring

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/goliatone/go-ccnut/pkg/logger"
)

// ErrMalformedEscape marks values whose percent escapes cannot be decoded.
var ErrMalformedEscape = errors.New("querystring: malformed percent escape")

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the collaborator that receives decode warnings.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		r.logger = logger.OrNop(l)
	}
}

// WithStrictDecode makes undecodable values count as missing. By default the
// undecoded text is returned and a warning is logged.
func WithStrictDecode(strict bool) Option {
	return func(r *Reader) {
		r.strict = strict
	}
}

// Param is a decoded name/value pair.
type Param struct {
	Name  string
	Value string
}

// Reader looks up query-string parameters from a Source.
type Reader struct {
	source Source
	logger logger.Logger
	strict bool
}

// New builds a Reader over source. A nil source reads as an empty query
// string.
func New(source Source, opts ...Option) *Reader {
	if source == nil {
		source = Static("")
	}
	r := &Reader{source: source, logger: logger.Nop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// QueryString returns the raw query string supplied by the Source.
func (r *Reader) QueryString() string {
	if r == nil || r.source == nil {
		return ""
	}
	return r.source.QueryString()
}

// Lookup returns the decoded value of name and whether it was present with a
// non-empty value.
func (r *Reader) Lookup(name string) (string, bool) {
	pattern, err := paramPattern(name)
	if err != nil {
		r.log().Warn("querystring: invalid parameter name", name, err)
		return "", false
	}

	match := pattern.FindStringSubmatch(r.QueryString())
	if match == nil {
		return "", false
	}

	value, err := Decode(match[1])
	if err != nil {
		if r.strict {
			return "", false
		}
		r.log().Warn("querystring: returning undecoded value for", name, err)
	}
	return value, true
}

// GetParam returns the decoded value of name, or defaultValue when the
// parameter is absent. Omitting defaultValue yields "".
func (r *Reader) GetParam(name string, defaultValue ...string) string {
	if value, ok := r.Lookup(name); ok {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// Params lists every parameter in query-string order. Pairs without "=" are
// reported with an empty value.
func (r *Reader) Params() []Param {
	raw := r.QueryString()
	raw = strings.TrimPrefix(raw, "?")
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}
	if raw == "" {
		return nil
	}

	var out []Param
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		decodedName, nameErr := Decode(name)
		decodedValue, valueErr := Decode(value)
		if nameErr != nil || valueErr != nil {
			if r.strict {
				continue
			}
			r.log().Warn("querystring: keeping undecoded pair", part)
		}
		out = append(out, Param{Name: decodedName, Value: decodedValue})
	}
	return out
}

// Values returns Params folded into a map. The first occurrence of a name wins,
// matching Lookup.
func (r *Reader) Values() map[string]string {
	params := r.Params()
	out := make(map[string]string, len(params))
	for _, p := range params {
		if _, exists := out[p.Name]; exists {
			continue
		}
		out[p.Name] = p.Value
	}
	return out
}

func (r *Reader) log() logger.Logger {
	if r == nil {
		return logger.Nop()
	}
	return logger.OrNop(r.logger)
}

// Decode turns "+" into spaces and percent-decodes the result. On malformed
// escapes it returns the plus-substituted text alongside ErrMalformedEscape.
func Decode(raw string) (string, error) {
	spaced := strings.ReplaceAll(raw, "+", " ")
	decoded, err := url.PathUnescape(spaced)
	if err != nil {
		return spaced, fmt.Errorf("%w: %w", ErrMalformedEscape, err)
	}
	return decoded, nil
}

// paramPattern escapes name so brackets and other metacharacters match
// literally, then captures the value up to the next "&" or "#".
func paramPattern(name string) (*regexp.Regexp, error) {
	return regexp.Compile(`[?&]` + regexp.QuoteMeta(name) + `=([^&#]+)`)
}
