package replace

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/goliatone/go-ccnut/pkg/logger"
	"github.com/goliatone/go-ccnut/pkg/scope"
)

// Option configures a Replacer.
type Option func(*Replacer)

// WithLogger sets the collaborator that receives swallowed failures.
func WithLogger(l logger.Logger) Option {
	return func(r *Replacer) {
		r.logger = logger.OrNop(l)
	}
}

// WithLiteralPatterns quotes every pattern before compiling it so keys match
// verbatim.
func WithLiteralPatterns(enabled bool) Option {
	return func(r *Replacer) {
		r.literal = enabled
	}
}

// WithExpand enables $1 / ${name} expansion in replacement values. Values are
// inserted verbatim otherwise.
func WithExpand(enabled bool) Option {
	return func(r *Replacer) {
		r.expand = enabled
	}
}

// WithCacheSize bounds the compiled pattern cache. Zero or a negative size
// disables caching.
func WithCacheSize(size int) Option {
	return func(r *Replacer) {
		r.cacheSize = size
	}
}

// Replacer applies replacement maps to markup. It holds no per-call state and
// is safe for concurrent use.
type Replacer struct {
	logger    logger.Logger
	literal   bool
	expand    bool
	cacheSize int
	cache     *patternCache
}

// Result describes a single Apply call.
type Result struct {
	// Output is the replaced markup, or the original markup when Err is set.
	Output string
	// Applied counts entries whose pattern was compiled and run.
	Applied int
	// Skipped counts entries dropped because their value was falsy.
	Skipped int
	Err     error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// New constructs a Replacer.
func New(opts ...Option) *Replacer {
	r := &Replacer{
		logger:    logger.Nop(),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	r.cache = newPatternCache(r.cacheSize)
	return r
}

// Apply substitutes every entry of replacements in markup. Any failure leaves
// the markup untouched: partial substitutions are discarded.
func (r *Replacer) Apply(markup string, replacements any) (result Result) {
	result.Output = markup

	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Output: markup, Err: fmt.Errorf("%w: %v", ErrReplacementPanic, rec)}
		}
	}()

	pairs, err := normalize(replacements)
	if err != nil {
		result.Err = err
		return result
	}

	out := markup
	for _, pair := range pairs {
		if !scope.Truthy(pair.Value) {
			result.Skipped++
			continue
		}

		re, err := r.compile(pair.Pattern)
		if err != nil {
			return Result{Output: markup, Err: err}
		}

		value := scope.Stringify(pair.Value)
		if r.expand {
			out = re.ReplaceAllString(out, value)
		} else {
			out = re.ReplaceAllLiteralString(out, value)
		}
		result.Applied++
	}

	result.Output = out
	return result
}

// Replace is the degrading form of Apply: failures are logged and the
// original markup is returned. Invalid replacement input is ignored silently.
func (r *Replacer) Replace(markup string, replacements any) string {
	result := r.Apply(markup, replacements)
	if result.Err != nil && !isInvalidInput(result.Err) {
		r.log().Log("ccnut replace:", result.Err)
	}
	return result.Output
}

// ReplaceText parses mapping as YAML or JSON mapping text, such as the flow
// form `{'%name%': 'Jurgen'}`, and replaces with it. Text that is empty or not
// a mapping leaves markup unchanged silently; text that fails to parse is
// logged and also leaves markup unchanged.
func (r *Replacer) ReplaceText(markup, mapping string) string {
	replacements, err := ParseMap([]byte(mapping))
	if err != nil {
		if errors.Is(err, ErrMalformedMapping) {
			r.log().Log("ccnut replace:", err)
		}
		return markup
	}
	return r.Replace(markup, replacements)
}

// Compile exposes the pattern compilation used by Apply, including literal
// quoting and caching.
func (r *Replacer) Compile(pattern string) (*regexp.Regexp, error) {
	return r.compile(pattern)
}

func (r *Replacer) compile(pattern string) (*regexp.Regexp, error) {
	if r.literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	if r.cache == nil {
		return newPatternCache(0).compile(pattern)
	}
	return r.cache.compile(pattern)
}

func (r *Replacer) log() logger.Logger {
	if r == nil {
		return logger.Nop()
	}
	return logger.OrNop(r.logger)
}

func isInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidReplacements)
}

var defaultReplacer = New()

// Default returns the package-level Replacer behind Replace and ReplaceText.
func Default() *Replacer { return defaultReplacer }

// Replace runs markup through a package-level Replacer with default options.
func Replace(markup string, replacements any) string {
	return defaultReplacer.Replace(markup, replacements)
}

// ReplaceText is Replacer.ReplaceText on the package-level Replacer.
func ReplaceText(markup, mapping string) string {
	return defaultReplacer.ReplaceText(markup, mapping)
}
