package directive

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseMarkup parses a complete document or a body fragment. Fragment nodes
// are attached to a synthetic body element which is returned as the root.
func parseMarkup(data []byte) (*html.Node, bool, error) {
	if isDocument(data) {
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, true, fmt.Errorf("directive: parse document: %w", err)
		}
		return doc, true, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(data), body)
	if err != nil {
		return nil, false, fmt.Errorf("directive: parse fragment: %w", err)
	}
	for _, node := range nodes {
		body.AppendChild(node)
	}
	return body, false, nil
}

func renderMarkup(w io.Writer, root *html.Node, document bool) error {
	if document {
		if err := html.Render(w, root); err != nil {
			return fmt.Errorf("directive: render document: %w", err)
		}
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return fmt.Errorf("directive: render fragment: %w", err)
		}
	}
	return nil
}

// directiveValue finds a directive on node. Attributes match by name with an
// optional data- or x- prefix; unless attrOnly, a class of the same name
// enables the directive with an empty value.
func directiveValue(node *html.Node, name string, attrOnly bool) (string, bool) {
	for _, a := range node.Attr {
		key := strings.ToLower(a.Key)
		key = strings.TrimPrefix(key, "data-")
		key = strings.TrimPrefix(key, "x-")
		if key == name {
			return a.Val, true
		}
	}
	if attrOnly {
		return "", false
	}
	if classes, ok := attr(node, "class"); ok {
		for _, class := range strings.Fields(classes) {
			if class == name {
				return "", true
			}
		}
	}
	return "", false
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(node *html.Node, key, value string) {
	for i, a := range node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

func innerHTML(node *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("directive: render inner html: %w", err)
		}
	}
	return buf.String(), nil
}

func setInnerHTML(node *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), node)
	if err != nil {
		return fmt.Errorf("directive: parse replaced html: %w", err)
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		node.AppendChild(n)
	}
	return nil
}

func textContent(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}

func isDocument(data []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(data))
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}
