package replace

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the compiled pattern cache.
const DefaultCacheSize = 256

// patternCache memoises compiled expressions. A nil cache compiles on every
// call.
type patternCache struct {
	entries *lru.Cache[string, *regexp.Regexp]
}

func newPatternCache(size int) *patternCache {
	if size <= 0 {
		return &patternCache{}
	}
	entries, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return &patternCache{}
	}
	return &patternCache{entries: entries}
}

func (c *patternCache) compile(source string) (*regexp.Regexp, error) {
	if c != nil && c.entries != nil {
		if re, ok := c.entries.Get(source); ok {
			return re, nil
		}
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrPatternCompilation, source, err)
	}
	if c != nil && c.entries != nil {
		c.entries.Add(source, re)
	}
	return re, nil
}

func (c *patternCache) len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
