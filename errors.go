package blockdoc

import (
	"errors"

	"github.com/alnah/go-blockdoc/internal/process"
)

// Sentinel errors for library operations.
var (
	// Block errors.
	ErrContentType = errors.New("text block content must be a string")
	ErrUnknownKind = errors.New("unknown text block kind")
	ErrRender      = errors.New("block rendering failed")

	// Settings and request validation errors.
	ErrInvalidSettings    = errors.New("invalid settings")
	ErrInvalidZoom        = errors.New("invalid zoom")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrMissingPath        = errors.New("input and output paths are required")
	ErrUnsupportedFormat  = errors.New("unsupported output format")

	// Conversion errors.
	ErrUnknownBackend = errors.New("unknown renderer backend")
	ErrTempFile       = errors.New("temp file staging failed")
	ErrOutputMissing  = errors.New("renderer produced no output")
	ErrOutputInvalid  = errors.New("renderer output is not a valid document")

	// Process errors, matched with errors.Is against any conversion error.
	ErrProcessStart  = process.ErrProcessStart
	ErrProcessFailed = process.ErrProcessFailed

	// Asset loading errors.
	ErrStyleNotFound         = errors.New("style not found")
	ErrTemplateSetNotFound   = errors.New("template set not found")
	ErrIncompleteTemplateSet = errors.New("template set missing required template")
	ErrTemplateRender        = errors.New("header or footer template rendering failed")
	ErrInvalidAssetPath      = errors.New("invalid asset path")
)

// ExecError reports a renderer that could not start or exited non-zero.
// Its message contains the full command line and the captured stderr.
type ExecError = process.ExecError
