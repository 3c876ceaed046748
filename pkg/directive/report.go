package directive

import (
	"fmt"
	"sort"
	"strings"
)

// Failure records a directive that could not be linked. The element is left
// as it was.
type Failure struct {
	Directive string
	Element   string
	Err       error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s on <%s>: %v", f.Directive, f.Element, f.Err)
}

// Report summarises a Link pass.
type Report struct {
	// Linked counts successful links per directive name.
	Linked   map[string]int
	Failures []Failure
}

func (r *Report) linked(directive string) {
	if r.Linked == nil {
		r.Linked = make(map[string]int)
	}
	r.Linked[directive]++
}

func (r *Report) fail(directive, element string, err error) {
	r.Failures = append(r.Failures, Failure{Directive: directive, Element: element, Err: err})
}

// OK reports whether every directive linked.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// String formats the report for CLI output.
func (r Report) String() string {
	names := make([]string, 0, len(r.Linked))
	for name := range r.Linked {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, r.Linked[name]))
	}
	if len(r.Failures) > 0 {
		parts = append(parts, fmt.Sprintf("failures=%d", len(r.Failures)))
	}
	if len(parts) == 0 {
		return "no directives linked"
	}
	return strings.Join(parts, " ")
}
