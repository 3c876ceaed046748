package replace

import "errors"

var (
	// ErrInvalidReplacements is returned when the replacements argument is not
	// map shaped.
	ErrInvalidReplacements = errors.New("replace: replacements must be a mapping")
	// ErrMalformedMapping marks mapping text that failed to parse. It always
	// accompanies ErrInvalidReplacements.
	ErrMalformedMapping = errors.New("replace: malformed mapping")
	// ErrPatternCompilation wraps regular-expression syntax errors.
	ErrPatternCompilation = errors.New("replace: invalid pattern")
	// ErrReplacementPanic is reported when evaluating a replacement panicked.
	ErrReplacementPanic = errors.New("replace: replacement panicked")
)
