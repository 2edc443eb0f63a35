package blockdoc

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-blockdoc/internal/fileutil"
	"github.com/alnah/go-blockdoc/internal/pipeline"
)

// Document is the root of a block tree, rendered as one HTML page.
type Document struct {
	root      Block
	id        string
	title     string
	style     string
	css       []string
	sourceDir string
	loader    AssetLoader
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithDocumentID sets the document identifier. Temp file names are derived
// from its first Settings.IDPrecision characters; a name already in use gets
// a numbered variant.
func WithDocumentID(id string) DocumentOption {
	return func(d *Document) {
		if id != "" {
			d.id = id
		}
	}
}

// WithTitle sets the <title> of the document.
func WithTitle(title string) DocumentOption {
	return func(d *Document) { d.title = title }
}

// WithStylesheet selects the base stylesheet: a style name resolved by the
// asset loader, or a path to a .css file.
func WithStylesheet(nameOrPath string) DocumentOption {
	return func(d *Document) { d.style = nameOrPath }
}

// WithCSS appends CSS after the base stylesheet.
func WithCSS(css string) DocumentOption {
	return func(d *Document) {
		if css != "" {
			d.css = append(d.css, css)
		}
	}
}

// WithSourceDir rewrites relative resource paths to file:// URLs under dir.
// Staged HTML does not live next to its sources, so relative links would
// otherwise break in the renderer.
func WithSourceDir(dir string) DocumentOption {
	return func(d *Document) { d.sourceDir = dir }
}

// WithAssetLoader sets the loader used to resolve style names.
func WithAssetLoader(loader AssetLoader) DocumentOption {
	return func(d *Document) {
		if loader != nil {
			d.loader = loader
		}
	}
}

// NewDocument creates a document around root. Without WithDocumentID the
// id is a random UUID in hex form (32 characters).
func NewDocument(root Block, opts ...DocumentOption) *Document {
	u := uuid.New()
	d := &Document{
		root:  root,
		id:    hex.EncodeToString(u[:]),
		style: DefaultStyle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// HTML renders the full HTML5 document: doctype, head with charset, title
// and stylesheets, then the block tree inside <body>.
func (d *Document) HTML() (string, error) {
	css, err := d.stylesheet()
	if err != nil {
		return "", err
	}
	return renderPage(d.title, css, d.root, d.sourceDir)
}

// stylesheet returns the base style followed by any extra CSS.
func (d *Document) stylesheet() (string, error) {
	var base string
	switch {
	case d.style == "":
	case fileutil.IsFilePath(d.style):
		data, err := os.ReadFile(d.style) // #nosec G304 -- user-selected stylesheet
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStyleNotFound, err)
		}
		base = string(data)
	default:
		loader := d.loader
		if loader == nil {
			var err error
			if loader, err = NewAssetLoader(""); err != nil {
				return "", err
			}
		}
		content, err := loader.LoadStyle(d.style)
		if err != nil {
			return "", err
		}
		base = content
	}
	return strings.Join(append([]string{base}, d.css...), "\n"), nil
}

// renderPage builds a complete page around body. A nil body renders an
// empty <body>.
func renderPage(title, css string, body Block, sourceDir string) (string, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := pipeline.NewElement("html")
	head := pipeline.NewElement("head")
	head.AppendChild(pipeline.NewElement("meta", html.Attribute{Key: "charset", Val: "utf-8"}))

	titleEl := pipeline.NewElement("title")
	titleEl.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(titleEl)

	if strings.TrimSpace(css) != "" {
		style := pipeline.NewElement("style")
		style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
		head.AppendChild(style)
	}

	bodyEl := pipeline.NewElement("body")
	if body != nil {
		if err := body.Render(bodyEl); err != nil {
			return "", err
		}
	}
	if err := pipeline.RewriteTree(bodyEl, sourceDir); err != nil {
		return "", fmt.Errorf("%w: rewriting paths: %v", ErrRender, err)
	}

	root.AppendChild(head)
	root.AppendChild(bodyEl)
	doc.AppendChild(root)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// SaveOption configures a single Save call.
type SaveOption func(*saveConfig)

type saveConfig struct {
	req          ConvertRequest
	header       Block
	headerHTML   string
	footer       Block
	footerHTML   string
	templates    *TemplateSet
	templateDate string
	zoomSet      bool
	logger       *zap.Logger
}

// WithPageSize sets the paper format.
func WithPageSize(size PageSize) SaveOption {
	return func(c *saveConfig) { c.req.PageSize = size }
}

// WithOrientation sets the page orientation.
func WithOrientation(o Orientation) SaveOption {
	return func(c *saveConfig) { c.req.Orientation = o }
}

// WithZoom sets the renderer zoom factor. Save rejects a zoom that is not
// positive; omit the option to render at 1.0.
func WithZoom(zoom float64) SaveOption {
	return func(c *saveConfig) {
		c.req.Zoom = zoom
		c.zoomSet = true
	}
}

// WithHeader renders b as the running header page.
func WithHeader(b Block) SaveOption {
	return func(c *saveConfig) { c.header = b }
}

// WithHeaderHTML uses a complete HTML page as the running header.
func WithHeaderHTML(page string) SaveOption {
	return func(c *saveConfig) { c.headerHTML = page }
}

// WithFooter renders b as the running footer page.
func WithFooter(b Block) SaveOption {
	return func(c *saveConfig) { c.footer = b }
}

// WithFooterHTML uses a complete HTML page as the running footer.
func WithFooterHTML(page string) SaveOption {
	return func(c *saveConfig) { c.footerHTML = page }
}

// WithTemplates renders the header and footer from a template set, with the
// document title and id and the given date. Explicit headers and footers
// take precedence.
func WithTemplates(ts *TemplateSet, date string) SaveOption {
	return func(c *saveConfig) {
		c.templates = ts
		c.templateDate = date
	}
}

// WithHeaderSpacing sets the space between header and content, in mm.
func WithHeaderSpacing(mm float64) SaveOption {
	return func(c *saveConfig) { c.req.HeaderSpacing = &mm }
}

// WithFooterSpacing sets the space between content and footer, in mm.
func WithFooterSpacing(mm float64) SaveOption {
	return func(c *saveConfig) { c.req.FooterSpacing = &mm }
}

// WithExtra passes a backend flag through, without its leading dashes.
func WithExtra(flag, value string) SaveOption {
	return func(c *saveConfig) {
		if c.req.Extra == nil {
			c.req.Extra = make(map[string]string)
		}
		c.req.Extra[flag] = value
	}
}

// WithSaveLogger sets the logger used for temp file handling.
func WithSaveLogger(logger *zap.Logger) SaveOption {
	return func(c *saveConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Save stages the document HTML in settings.TempHTMLDir, converts it with
// conv into outPath and returns the path of the produced file.
//
// Header and footer pages, when given, are staged next to the document.
// Staged files are removed on every exit path unless
// settings.RemoveTempFiles is false.
func (d *Document) Save(ctx context.Context, conv HTMLConverter, settings Settings, outPath string, opts ...SaveOption) (string, error) {
	cfg := saveConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := settings.Validate(); err != nil {
		return "", err
	}
	if cfg.zoomSet && !(cfg.req.Zoom > 0) {
		return "", fmt.Errorf("%w: must be positive, got %g", ErrInvalidZoom, cfg.req.Zoom)
	}
	if conv == nil {
		return "", fmt.Errorf("%w: nil converter", ErrUnknownBackend)
	}
	if outPath == "" {
		return "", ErrMissingPath
	}

	content, err := d.HTML()
	if err != nil {
		return "", err
	}
	header, footer, err := d.pages(cfg)
	if err != nil {
		return "", err
	}

	temp := fileutil.NewTempFiles(settings.TempHTMLDir, !settings.RemoveTempFiles, cfg.logger)
	defer temp.Cleanup()

	req := cfg.req
	req.OutputFile = outPath
	if req.InputFile, err = d.stage(temp, settings, "", content); err != nil {
		return "", err
	}
	if header != "" {
		if req.HeaderFile, err = d.stage(temp, settings, "header", header); err != nil {
			return "", err
		}
	}
	if footer != "" {
		if req.FooterFile, err = d.stage(temp, settings, "footer", footer); err != nil {
			return "", err
		}
	}

	cfg.logger.Debug("converting document",
		zap.String("id", d.id),
		zap.String("backend", conv.Name()),
		zap.String("input", req.InputFile),
		zap.String("output", outPath))

	return conv.Convert(ctx, req)
}

// pages returns the header and footer HTML for a Save call.
func (d *Document) pages(cfg saveConfig) (header, footer string, err error) {
	data := PageData{Title: d.title, DocumentID: d.id, Date: cfg.templateDate}

	header, err = d.page(cfg.header, cfg.headerHTML, cfg.templates, (*TemplateSet).RenderHeader, data)
	if err != nil {
		return "", "", fmt.Errorf("header: %w", err)
	}
	footer, err = d.page(cfg.footer, cfg.footerHTML, cfg.templates, (*TemplateSet).RenderFooter, data)
	if err != nil {
		return "", "", fmt.Errorf("footer: %w", err)
	}
	return header, footer, nil
}

func (d *Document) page(b Block, raw string, ts *TemplateSet, render func(*TemplateSet, PageData) (string, error), data PageData) (string, error) {
	switch {
	case b != nil:
		css, err := d.stylesheet()
		if err != nil {
			return "", err
		}
		return renderPage(d.title, css, b, d.sourceDir)
	case raw != "":
		return raw, nil
	case ts != nil:
		return render(ts, data)
	default:
		return "", nil
	}
}

// stage writes content to the temp directory under a name derived from the
// document id and returns its absolute path.
func (d *Document) stage(temp *fileutil.TempFiles, settings Settings, suffix, content string) (string, error) {
	name, err := fileutil.ArtifactFileName(d.id, settings.IDPrecision, suffix, "html")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTempFile, err)
	}
	path, err := temp.Write(name, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTempFile, err)
	}
	return path, nil
}
