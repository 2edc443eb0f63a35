package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed styles/*
var styles embed.FS

//go:embed templates/*
var templates embed.FS

// EmbeddedLoader loads the built-in assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a built-in CSS style by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(KindStyle, name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	return string(content), nil
}

// LoadTemplateSet loads a built-in header/footer template set by name.
func (e *EmbeddedLoader) LoadTemplateSet(name string) (*TemplateSet, error) {
	if err := ValidateAssetName(KindTemplateSet, name); err != nil {
		return nil, err
	}

	dir := "templates/" + name
	header, headerErr := templates.ReadFile(dir + "/header.html")
	footer, footerErr := templates.ReadFile(dir + "/footer.html")

	return buildTemplateSet(name, header, headerErr, footer, footerErr)
}

// Styles lists the names of the built-in styles.
func (e *EmbeddedLoader) Styles() []string {
	entries, err := fs.ReadDir(styles, "styles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".css"); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// buildTemplateSet classifies the two read results the same way for every
// loader: both missing means no such set, one missing means incomplete.
func buildTemplateSet(name string, header []byte, headerErr error, footer []byte, footerErr error) (*TemplateSet, error) {
	headerMissing := errors.Is(headerErr, fs.ErrNotExist)
	footerMissing := errors.Is(footerErr, fs.ErrNotExist)

	if headerMissing && footerMissing {
		return nil, fmt.Errorf("%w: %q", ErrTemplateSetNotFound, name)
	}
	if headerErr != nil && !headerMissing {
		return nil, fmt.Errorf("%w: reading header.html: %v", ErrAssetRead, headerErr)
	}
	if footerErr != nil && !footerMissing {
		return nil, fmt.Errorf("%w: reading footer.html: %v", ErrAssetRead, footerErr)
	}
	if headerMissing {
		return nil, fmt.Errorf("%w: %q missing header.html", ErrIncompleteTemplateSet, name)
	}
	if footerMissing {
		return nil, fmt.Errorf("%w: %q missing footer.html", ErrIncompleteTemplateSet, name)
	}

	return &TemplateSet{
		Name:   name,
		Header: string(header),
		Footer: string(footer),
	}, nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
