package assets

import (
	"fmt"
	"unicode"
)

// Asset kinds named in validation errors.
const (
	KindStyle       = "style"
	KindTemplateSet = "template set"
)

// MaxAssetNameLength bounds style and template set names.
const MaxAssetNameLength = 64

// ValidateAssetName checks that name can select a style (styles/<name>.css)
// or a template set (templates/<name>/). A name is one path element of
// letters, digits, '-' and '_', starting with a letter or digit. Dots are
// rejected so that "--style report.css" always means a file; a leading '-'
// is rejected so a name never reads as a flag.
func ValidateAssetName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty %s name", ErrInvalidAssetName, kind)
	}
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf("%w: %s name longer than %d bytes", ErrInvalidAssetName, kind, MaxAssetNameLength)
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case (r == '-' || r == '_') && i > 0:
		default:
			return fmt.Errorf("%w: %s name %q: %q not allowed", ErrInvalidAssetName, kind, name, r)
		}
	}
	return nil
}
