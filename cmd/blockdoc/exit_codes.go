package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-blockdoc"
	"github.com/alnah/go-blockdoc/internal/config"
	"github.com/alnah/go-blockdoc/internal/dateutil"
	"github.com/alnah/go-blockdoc/internal/logging"
)

// Exit codes for the blockdoc CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Successful conversion
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // File not found, permission denied, temp staging
	ExitRenderer = 4 // Renderer could not start, failed, or wrote no usable output
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Renderer errors (exit 4)
	if errors.Is(err, blockdoc.ErrProcessStart) ||
		errors.Is(err, blockdoc.ErrProcessFailed) ||
		errors.Is(err, blockdoc.ErrOutputMissing) ||
		errors.Is(err, blockdoc.ErrOutputInvalid) {
		return ExitRenderer
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, blockdoc.ErrTempFile) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrReadPageFile) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoDocuments) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, logging.ErrInvalidFormat) ||
		errors.Is(err, dateutil.ErrInvalidLayout) ||
		errors.Is(err, blockdoc.ErrContentType) ||
		errors.Is(err, blockdoc.ErrUnknownKind) ||
		errors.Is(err, blockdoc.ErrInvalidSettings) ||
		errors.Is(err, blockdoc.ErrInvalidZoom) ||
		errors.Is(err, blockdoc.ErrInvalidPageSize) ||
		errors.Is(err, blockdoc.ErrInvalidOrientation) ||
		errors.Is(err, blockdoc.ErrMissingPath) ||
		errors.Is(err, blockdoc.ErrUnsupportedFormat) ||
		errors.Is(err, blockdoc.ErrUnknownBackend) ||
		errors.Is(err, blockdoc.ErrStyleNotFound) ||
		errors.Is(err, blockdoc.ErrTemplateSetNotFound) ||
		errors.Is(err, blockdoc.ErrIncompleteTemplateSet) ||
		errors.Is(err, blockdoc.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidExtra) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrAmbiguousOutput) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	return ExitGeneral
}
