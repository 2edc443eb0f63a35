package blockdoc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-blockdoc/internal/pipeline"
)

// Block is a node of the document tree. Render appends the block's HTML
// to parent and must not keep references to the nodes it creates.
type Block interface {
	Render(parent *html.Node) error
}

// defaultTitleLevel is the heading level of container titles.
const defaultTitleLevel = 3

// Container groups blocks and renders them in order.
type Container struct {
	children   []Block
	title      string
	titleLevel int
}

// NewContainer creates a container holding children.
func NewContainer(children ...Block) *Container {
	return &Container{children: children, titleLevel: defaultTitleLevel}
}

// Append adds blocks after the existing children.
func (c *Container) Append(blocks ...Block) *Container {
	c.children = append(c.children, blocks...)
	return c
}

// WithTitle sets a heading rendered above the children. Levels outside
// 1..6 fall back to 3.
func (c *Container) WithTitle(title string, level int) *Container {
	if level < 1 || level > 6 {
		level = defaultTitleLevel
	}
	c.title = title
	c.titleLevel = level
	return c
}

// Len returns the number of direct children.
func (c *Container) Len() int { return len(c.children) }

// Render appends <div class="blockdoc-container"> with the optional title
// and every child to parent.
func (c *Container) Render(parent *html.Node) error {
	if parent == nil {
		return fmt.Errorf("%w: nil parent", ErrRender)
	}

	div := pipeline.NewElement("div", html.Attribute{Key: "class", Val: "blockdoc-container"})
	if c.title != "" {
		h := pipeline.NewElement("h"+strconv.Itoa(c.titleLevel), html.Attribute{Key: "class", Val: "blockdoc-title"})
		h.AppendChild(&html.Node{Type: html.TextNode, Data: c.title})
		div.AppendChild(h)
	}

	for i, child := range c.children {
		if child == nil {
			continue
		}
		if err := child.Render(div); err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
	}

	parent.AppendChild(div)
	return nil
}

// RenderHTML renders a block on its own and returns the HTML fragment.
func RenderHTML(b Block) (string, error) {
	root := pipeline.NewElement("body")
	if err := b.Render(root); err != nil {
		return "", err
	}
	var buf strings.Builder
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	return buf.String(), nil
}

// Compile-time interface check.
var _ Block = (*Container)(nil)
