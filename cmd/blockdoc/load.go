package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-blockdoc"
	"github.com/alnah/go-blockdoc/internal/yamlutil"
)

// Sentinel errors for input loading.
var (
	ErrReadInput        = errors.New("failed to read input file")
	ErrInvalidExtension = errors.New("input must be .md, .markdown, .yaml or .yml")
	ErrInvalidDocument  = errors.New("invalid block document")
)

// maxBlockDepth bounds container nesting in YAML block documents.
const maxBlockDepth = 32

// documentMeta is shared by Markdown front matter and YAML block documents.
// Page fields override the command line for this document only.
type documentMeta struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	PageSize    string  `yaml:"pageSize"`
	Orientation string  `yaml:"orientation"`
	Zoom        float64 `yaml:"zoom"`
	Style       string  `yaml:"style"`
}

// blockFile is the layout of a YAML block document.
type blockFile struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	PageSize    string      `yaml:"pageSize"`
	Orientation string      `yaml:"orientation"`
	Zoom        float64     `yaml:"zoom"`
	Style       string      `yaml:"style"`
	Blocks      []blockSpec `yaml:"blocks"`
}

func (f blockFile) meta() documentMeta {
	return documentMeta{
		ID:          f.ID,
		Title:       f.Title,
		PageSize:    f.PageSize,
		Orientation: f.Orientation,
		Zoom:        f.Zoom,
		Style:       f.Style,
	}
}

// blockSpec describes one block. A spec with kind "container", or with
// nested blocks and no kind, becomes a Container.
type blockSpec struct {
	Kind    string      `yaml:"kind"`
	Content any         `yaml:"content"`
	Dedent  *bool       `yaml:"dedent"`
	Title   string      `yaml:"title"`
	Level   int         `yaml:"level"`
	ID      string      `yaml:"id"`
	Class   string      `yaml:"class"`
	Blocks  []blockSpec `yaml:"blocks"`
}

// loadedDocument is an input file turned into a document.
type loadedDocument struct {
	doc  *blockdoc.Document
	meta documentMeta
}

// loadDocument reads path and builds its document. Relative links resolve
// against the file's directory.
func loadDocument(path string, opts ...blockdoc.DocumentOption) (*loadedDocument, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	var (
		root blockdoc.Block
		meta documentMeta
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		root, meta, err = parseMarkdownDocument(data)
	case ".yaml", ".yml":
		root, meta, err = parseBlockDocument(data)
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	docOpts := []blockdoc.DocumentOption{blockdoc.WithSourceDir(filepath.Dir(path))}
	docOpts = append(docOpts, opts...)
	if meta.ID != "" {
		docOpts = append(docOpts, blockdoc.WithDocumentID(meta.ID))
	}
	if meta.Title != "" {
		docOpts = append(docOpts, blockdoc.WithTitle(meta.Title))
	}
	if meta.Style != "" {
		docOpts = append(docOpts, blockdoc.WithStylesheet(meta.Style))
	}

	return &loadedDocument{doc: blockdoc.NewDocument(root, docOpts...), meta: meta}, nil
}

// yamlFrontMatter decodes "---" front matter with the same YAML library as
// config files. Unknown keys are ignored: front matter is shared with other
// Markdown tools.
var yamlFrontMatter = frontmatter.NewFormat("---", "---", decodeFrontMatter)

func decodeFrontMatter(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yamlutil.Unmarshal(data, v)
}

// parseMarkdownDocument splits optional front matter from the body and
// renders the body as a single Markdown block.
func parseMarkdownDocument(data []byte) (blockdoc.Block, documentMeta, error) {
	var meta documentMeta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta, yamlFrontMatter)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: front matter: %v", ErrInvalidDocument, err)
	}

	md, err := blockdoc.NewMarkdown(string(body), blockdoc.WithDedent(false))
	if err != nil {
		return nil, meta, err
	}
	return md, meta, nil
}

// parseBlockDocument decodes a YAML block document into a container tree.
func parseBlockDocument(data []byte) (blockdoc.Block, documentMeta, error) {
	var file blockFile
	if err := yamlutil.UnmarshalStrict(data, &file); err != nil {
		return nil, documentMeta{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	meta := file.meta()
	if len(file.Blocks) == 0 {
		return nil, meta, fmt.Errorf("%w: no blocks", ErrInvalidDocument)
	}

	root, err := buildContainer(file.Blocks, "blocks", 1)
	if err != nil {
		return nil, meta, err
	}
	return root, meta, nil
}

func buildContainer(specs []blockSpec, path string, depth int) (*blockdoc.Container, error) {
	if depth > maxBlockDepth {
		return nil, fmt.Errorf("%w: %s nested deeper than %d", ErrInvalidDocument, path, maxBlockDepth)
	}
	c := blockdoc.NewContainer()
	for i, spec := range specs {
		b, err := buildBlock(spec, fmt.Sprintf("%s[%d]", path, i), depth)
		if err != nil {
			return nil, err
		}
		c.Append(b)
	}
	return c, nil
}

func buildBlock(spec blockSpec, path string, depth int) (blockdoc.Block, error) {
	if spec.Kind == "container" || (spec.Kind == "" && len(spec.Blocks) > 0) {
		c, err := buildContainer(spec.Blocks, path+".blocks", depth+1)
		if err != nil {
			return nil, err
		}
		if spec.Title != "" {
			c.WithTitle(spec.Title, spec.Level)
		}
		return c, nil
	}
	if len(spec.Blocks) > 0 {
		return nil, fmt.Errorf("%w: %s: only containers hold blocks", ErrInvalidDocument, path)
	}

	kind, err := blockdoc.ParseTextKind(spec.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var opts []blockdoc.TextOption
	if spec.Dedent != nil {
		opts = append(opts, blockdoc.WithDedent(*spec.Dedent))
	}
	if spec.ID != "" {
		opts = append(opts, blockdoc.WithID(spec.ID))
	}
	if spec.Class != "" {
		opts = append(opts, blockdoc.WithClass(spec.Class))
	}

	text, err := blockdoc.NewText(kind, spec.Content, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if spec.Title == "" {
		return text, nil
	}
	return blockdoc.NewContainer(text).WithTitle(spec.Title, spec.Level), nil
}
