package blockdoc

import (
	"fmt"
	"os"

	"github.com/alnah/go-blockdoc/internal/process"
)

// Defaults for Settings.
const (
	DefaultIDPrecision    = 6
	DefaultMaxOutputBytes = process.DefaultMaxOutput
)

// Settings controls how documents are staged for conversion.
// Settings are plain values: load them once and pass them explicitly.
type Settings struct {
	// IDPrecision is the number of id characters used in temp file names.
	IDPrecision int

	// TempHTMLDir is where document HTML is written before conversion.
	TempHTMLDir string

	// RemoveTempFiles deletes staged files after conversion. Set it to false
	// to inspect the HTML a renderer received.
	RemoveTempFiles bool

	// MaxOutputBytes caps each captured renderer stream. 0 disables the cap.
	MaxOutputBytes int
}

// DefaultSettings returns settings staging into os.TempDir() with cleanup.
func DefaultSettings() Settings {
	return Settings{
		IDPrecision:     DefaultIDPrecision,
		TempHTMLDir:     os.TempDir(),
		RemoveTempFiles: true,
		MaxOutputBytes:  DefaultMaxOutputBytes,
	}
}

// Validate checks that the settings are usable.
// The temp directory is checked for existence only when a file is written.
func (s Settings) Validate() error {
	if s.IDPrecision < 1 {
		return fmt.Errorf("%w: id precision must be at least 1, got %d", ErrInvalidSettings, s.IDPrecision)
	}
	if s.TempHTMLDir == "" {
		return fmt.Errorf("%w: temp HTML directory is empty", ErrInvalidSettings)
	}
	if s.MaxOutputBytes < 0 {
		return fmt.Errorf("%w: max output bytes must not be negative, got %d", ErrInvalidSettings, s.MaxOutputBytes)
	}
	return nil
}

// runnerOutputCap maps the settings cap onto the runner convention,
// where 0 means "default" and a negative value disables capping.
func runnerOutputCap(maxOutputBytes int) int {
	if maxOutputBytes == 0 {
		return -1
	}
	return maxOutputBytes
}
