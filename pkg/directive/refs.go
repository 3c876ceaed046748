package directive

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-ccnut/pkg/replace"
)

// References lists the scope paths a document reads: plain identifiers in
// ccnut-replace and widget bindings plus ng-model paths. The result is sorted
// and free of duplicates. Malformed bindings are skipped.
func References(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	root, _, err := parseMarkup(data)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	collect := func(node *yaml.Node) (any, error) {
		if node.Kind == yaml.ScalarNode && node.Style == 0 && node.Tag == "!!str" {
			seen[node.Value] = struct{}{}
		}
		return nil, nil
	}
	bindings := func(raw string) {
		_, _ = replace.ParseMapWith([]byte(raw), collect)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if raw, ok := directiveValue(n, Replace, false); ok {
				bindings(raw)
			}
			for _, wd := range widgetDirectives {
				raw, ok := directiveValue(n, wd.name, wd.attrOnly)
				if !ok {
					continue
				}
				bindings(raw)
				if model, ok := attr(n, AttrModel); ok && strings.TrimSpace(model) != "" {
					seen[strings.TrimSpace(model)] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}
