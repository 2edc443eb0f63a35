package blockdoc

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-blockdoc/internal/pipeline"
)

// TextKind selects how a text block's content is processed and which
// element wraps it.
type TextKind int

// Text block kinds.
const (
	KindRaw      TextKind = iota // HTML inserted as is, wrapped in <div>
	KindPre                      // preformatted text, wrapped in <pre>
	KindSpan                     // inline HTML, wrapped in <span>
	KindMarkdown                 // Markdown converted to HTML, wrapped in <div>
)

var kindNames = map[TextKind]string{
	KindRaw:      "raw",
	KindPre:      "pre",
	KindSpan:     "span",
	KindMarkdown: "markdown",
}

var kindTags = map[TextKind]string{
	KindRaw:      "div",
	KindPre:      "pre",
	KindSpan:     "span",
	KindMarkdown: "div",
}

func (k TextKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TextKind(%d)", int(k))
}

// Tag returns the name of the wrapper element.
func (k TextKind) Tag() string {
	return kindTags[k]
}

func (k TextKind) valid() bool {
	_, ok := kindTags[k]
	return ok
}

// ParseTextKind converts a kind name ("raw", "pre", "span", "markdown" or
// "md") to a TextKind. Matching is case-insensitive.
func ParseTextKind(name string) (TextKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "raw", "html":
		return KindRaw, nil
	case "pre":
		return KindPre, nil
	case "span":
		return KindSpan, nil
	case "markdown", "md":
		return KindMarkdown, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// MarkdownRenderer converts Markdown text to an HTML fragment.
type MarkdownRenderer interface {
	ToHTML(content string) (string, error)
}

// TextOption configures a TextBlock.
type TextOption func(*textConfig)

type textConfig struct {
	dedent   bool
	id       string
	class    string
	styles   [][2]string
	markdown MarkdownRenderer
}

// WithDedent controls removal of the common leading indentation before
// processing. Enabled by default.
func WithDedent(enabled bool) TextOption {
	return func(c *textConfig) { c.dedent = enabled }
}

// WithID sets the id attribute of the wrapper element.
func WithID(id string) TextOption {
	return func(c *textConfig) { c.id = id }
}

// WithClass sets the class attribute of the wrapper element.
func WithClass(class string) TextOption {
	return func(c *textConfig) { c.class = class }
}

// WithStyle adds one CSS declaration to the wrapper's style attribute.
// Declarations keep the order in which they were added.
func WithStyle(property, value string) TextOption {
	return func(c *textConfig) { c.styles = append(c.styles, [2]string{property, value}) }
}

// WithMarkdownRenderer replaces the goldmark renderer used by Markdown blocks.
func WithMarkdownRenderer(r MarkdownRenderer) TextOption {
	return func(c *textConfig) { c.markdown = r }
}

// TextBlock is a leaf block holding a piece of text content.
//
// The content is dedented (optionally) and processed once, at construction.
// The processed HTML is immutable afterwards; every write parses it afresh,
// so the same block can be rendered into any number of trees.
type TextBlock struct {
	kind      TextKind
	raw       string
	processed string
	dedent    bool
	id        string
	class     string
	style     string
}

// NewText creates a text block from dynamically typed content, as produced
// by YAML or front matter decoding. Content that is not a string fails with
// ErrContentType before any processing happens.
func NewText(kind TextKind, contents any, opts ...TextOption) (*TextBlock, error) {
	s, ok := contents.(string)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrContentType, contents)
	}
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	cfg := textConfig{dedent: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	text := s
	if cfg.dedent {
		text = pipeline.Dedent(text)
	}

	processed, err := processText(kind, text, cfg.markdown)
	if err != nil {
		return nil, err
	}

	return &TextBlock{
		kind:      kind,
		raw:       s,
		processed: processed,
		dedent:    cfg.dedent,
		id:        cfg.id,
		class:     cfg.class,
		style:     joinStyles(cfg.styles),
	}, nil
}

// NewRaw creates a block inserting contents as HTML inside a <div>.
func NewRaw(contents string, opts ...TextOption) *TextBlock {
	return mustText(KindRaw, contents, opts)
}

// NewPre creates a block inserting contents inside a <pre>.
func NewPre(contents string, opts ...TextOption) *TextBlock {
	return mustText(KindPre, contents, opts)
}

// NewSpan creates a block inserting contents as HTML inside a <span>.
func NewSpan(contents string, opts ...TextOption) *TextBlock {
	return mustText(KindSpan, contents, opts)
}

// NewMarkdown creates a block converting contents from Markdown to HTML.
func NewMarkdown(contents string, opts ...TextOption) (*TextBlock, error) {
	return NewText(KindMarkdown, contents, opts...)
}

// mustText builds identity-processed blocks, which cannot fail for string
// content and a known kind.
func mustText(kind TextKind, contents string, opts []TextOption) *TextBlock {
	tb, err := NewText(kind, contents, opts...)
	if err != nil {
		panic("blockdoc: " + err.Error())
	}
	return tb
}

func processText(kind TextKind, text string, md MarkdownRenderer) (string, error) {
	if kind != KindMarkdown {
		return text, nil
	}
	if md == nil {
		md = pipeline.DefaultMarkdownRenderer()
	}
	out, err := md.ToHTML(text)
	if err != nil {
		return "", fmt.Errorf("%w: markdown: %v", ErrRender, err)
	}
	return out, nil
}

func joinStyles(decls [][2]string) string {
	if len(decls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d[0]+": "+d[1])
	}
	return strings.Join(parts, "; ")
}

// Kind returns the block's kind.
func (t *TextBlock) Kind() TextKind { return t.kind }

// Raw returns the content as given, before dedent and processing.
func (t *TextBlock) Raw() string { return t.raw }

// Processed returns the HTML produced at construction.
func (t *TextBlock) Processed() string { return t.processed }

// Dedented reports whether indentation was removed before processing.
func (t *TextBlock) Dedented() bool { return t.dedent }

// Encoding returns the character encoding the block declares: "UTF-8" for
// Markdown blocks, empty for the others. Documents are always written as UTF-8.
func (t *TextBlock) Encoding() string {
	if t.kind == KindMarkdown {
		return "UTF-8"
	}
	return ""
}

// WriteContents parses the processed HTML in the context of container and
// appends the resulting nodes to it, in order. Each call produces new nodes.
func (t *TextBlock) WriteContents(container *html.Node) error {
	if container == nil {
		return fmt.Errorf("%w: nil container", ErrRender)
	}
	if err := pipeline.AppendFragment(container, t.processed); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// Render appends the block's wrapper element, filled by WriteContents, to parent.
func (t *TextBlock) Render(parent *html.Node) error {
	if parent == nil {
		return fmt.Errorf("%w: nil parent", ErrRender)
	}

	var attrs []html.Attribute
	if t.id != "" {
		attrs = append(attrs, html.Attribute{Key: "id", Val: t.id})
	}
	if t.class != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: t.class})
	}
	if t.style != "" {
		attrs = append(attrs, html.Attribute{Key: "style", Val: t.style})
	}

	el := pipeline.NewElement(t.kind.Tag(), attrs...)
	if err := t.WriteContents(el); err != nil {
		return err
	}
	parent.AppendChild(el)
	return nil
}

// Compile-time interface check.
var _ Block = (*TextBlock)(nil)
