package utils

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the named attribute, or "" when absent
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the element's class list contains cls exactly
func HasClass(n *html.Node, cls string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == cls {
			return true
		}
	}
	return false
}

// ClassContains reports whether any of the element's classes contains one of the fragments
func ClassContains(n *html.Node, fragments []string) bool {
	class := strings.ToLower(Attr(n, "class"))
	if class == "" {
		return false
	}
	for _, f := range fragments {
		if strings.Contains(class, f) {
			return true
		}
	}
	return false
}

// FindAll returns every descendant element of root (excluding root) matching one of the atoms,
// in document order
func FindAll(root *html.Node, atoms ...atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				for _, a := range atoms {
					if c.DataAtom == a {
						out = append(out, c)
						break
					}
				}
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// FindFirst returns the first descendant element satisfying match, or nil
func FindFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := FindFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// NodeText concatenates the text nodes below n, trimming each and joining them with sep.
// Empty fragments are dropped.
func NodeText(n *html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, sep)
}

// RemoveElements detaches every element matching one of the atoms from the tree
func RemoveElements(root *html.Node, atoms ...atom.Atom) {
	for _, n := range FindAll(root, atoms...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}
