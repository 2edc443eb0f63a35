package blockdoc

import (
	"errors"

	"github.com/alnah/go-blockdoc/internal/assets"
)

// Asset name constants for built-in styles and templates.
const (
	// DefaultStyle is the name of the built-in CSS style.
	DefaultStyle = assets.DefaultStyleName

	// DefaultTemplateSet is the name of the built-in header/footer set.
	DefaultTemplateSet = assets.DefaultTemplateSetName
)

// AssetLoader defines the contract for loading CSS styles and HTML templates.
//
// The library provides NewAssetLoader() for filesystem-based loading with
// fallback to embedded defaults. Implement this interface for custom backends.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplateSet loads header and footer templates by name.
	// Returns ErrTemplateSetNotFound if the template set doesn't exist.
	// Returns ErrIncompleteTemplateSet if one of the templates is missing.
	LoadTemplateSet(name string) (*TemplateSet, error)
}

// TemplateSet holds the running header and footer pages of a document.
// Both are html/template sources executed with PageData.
type TemplateSet struct {
	Name   string // Identifier (name or path)
	Header string // Header page template HTML
	Footer string // Footer page template HTML
}

// PageData is the data available to header and footer templates.
type PageData struct {
	Title      string
	DocumentID string
	Date       string
}

// NewTemplateSet creates a TemplateSet from header and footer HTML content.
func NewTemplateSet(name, header, footer string) *TemplateSet {
	return &TemplateSet{Name: name, Header: header, Footer: footer}
}

// RenderHeader executes the header template with data.
func (ts *TemplateSet) RenderHeader(data PageData) (string, error) {
	out, err := ts.internal().RenderHeader(assets.PageData(data))
	return out, convertAssetError(err)
}

// RenderFooter executes the footer template with data.
func (ts *TemplateSet) RenderFooter(data PageData) (string, error) {
	out, err := ts.internal().RenderFooter(assets.PageData(data))
	return out, convertAssetError(err)
}

func (ts *TemplateSet) internal() *assets.TemplateSet {
	return &assets.TemplateSet{Name: ts.Name, Header: ts.Header, Footer: ts.Footer}
}

// NewAssetLoader creates an AssetLoader for the given base path.
// If basePath is empty, returns a loader using only embedded assets.
// If basePath is set, custom assets take precedence with fallback to embedded.
//
// The basePath directory should contain:
//   - styles/{name}.css for CSS styles
//   - templates/{name}/header.html and footer.html for template sets
//
// Returns ErrInvalidAssetPath if basePath is set but not a valid, readable directory.
func NewAssetLoader(basePath string) (AssetLoader, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &assetLoaderAdapter{resolver: resolver}, nil
}

// assetLoaderAdapter wraps internal AssetResolver to return public types.
type assetLoaderAdapter struct {
	resolver *assets.AssetResolver
}

func (a *assetLoaderAdapter) LoadStyle(name string) (string, error) {
	content, err := a.resolver.LoadStyle(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

func (a *assetLoaderAdapter) LoadTemplateSet(name string) (*TemplateSet, error) {
	ts, err := a.resolver.LoadTemplateSet(name)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &TemplateSet{Name: ts.Name, Header: ts.Header, Footer: ts.Footer}, nil
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrStyleNotFound):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrTemplateSetNotFound):
		return wrapError(ErrTemplateSetNotFound, err)
	case errors.Is(err, assets.ErrIncompleteTemplateSet):
		return wrapError(ErrIncompleteTemplateSet, err)
	case errors.Is(err, assets.ErrTemplateRender):
		return wrapError(ErrTemplateRender, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrStyleNotFound, err) // Invalid name means not found
	default:
		return err
	}
}

// wrapError creates a new error that wraps the original with a public sentinel.
// The resulting error keeps the original message and matches the sentinel
// with errors.Is.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

// Unwrap returns the public sentinel for errors.Is() matching.
// Internal errors are not exposed since they're in internal/ packages.
func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}

// Compile-time interface check.
var _ AssetLoader = (*assetLoaderAdapter)(nil)
