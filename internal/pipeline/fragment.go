package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrFragmentParse indicates an HTML fragment could not be parsed.
var ErrFragmentParse = errors.New("HTML fragment parse failed")

// NewElement creates a detached element node for tag.
// DataAtom is kept consistent with Data so the node can serve as a
// fragment parsing context.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// ParseFragment parses content as the children of context and returns the
// top-level nodes in document order. The nodes are detached and may be
// appended anywhere. A nil or non-element context parses as <body> content.
func ParseFragment(content string, context *html.Node) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = NewElement("body")
	}
	// The parser rejects contexts whose atom disagrees with their name.
	if context.DataAtom != atom.Lookup([]byte(context.Data)) {
		context = NewElement(context.Data)
	}

	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFragmentParse, err)
	}
	return nodes, nil
}

// AppendFragment parses content in the context of container and appends
// each resulting node to it. Every call parses afresh.
func AppendFragment(container *html.Node, content string) error {
	nodes, err := ParseFragment(content, container)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}

// RenderNodes serializes nodes back to HTML text, concatenated in order.
func RenderNodes(nodes []*html.Node) (string, error) {
	var buf strings.Builder
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// RenderChildren serializes the children of n, without n itself.
func RenderChildren(n *html.Node) (string, error) {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
