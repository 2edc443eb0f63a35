package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrMarkdownConversion indicates Markdown to HTML conversion failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// MarkdownRenderer converts Markdown text to an HTML fragment.
type MarkdownRenderer interface {
	ToHTML(content string) (string, error)
}

// GoldmarkRenderer converts Markdown to HTML fragments using goldmark.
// Safe for concurrent use: goldmark.Markdown holds no per-call state.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewGoldmarkRenderer creates a GoldmarkRenderer with GFM extensions and
// class-based syntax highlighting.
//
// Raw HTML is passed through: text blocks already accept arbitrary markup,
// so Markdown blocks behave the same way.
func NewGoldmarkRenderer() *GoldmarkRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &GoldmarkRenderer{md: md}
}

// ToHTML converts Markdown content to an HTML fragment (no <html>/<body>).
// The same input always yields the same output.
func (r *GoldmarkRenderer) ToHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownConversion, err)
	}
	return buf.String(), nil
}

var (
	defaultRendererOnce sync.Once
	defaultRenderer     *GoldmarkRenderer
)

// DefaultMarkdownRenderer returns a shared GoldmarkRenderer.
func DefaultMarkdownRenderer() *GoldmarkRenderer {
	defaultRendererOnce.Do(func() {
		defaultRenderer = NewGoldmarkRenderer()
	})
	return defaultRenderer
}

// Compile-time interface check.
var _ MarkdownRenderer = (*GoldmarkRenderer)(nil)
