package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DocumentFileName returns the temp file name for a document id: the first
// precision characters of id plus ".html". Ids shorter than precision are
// used whole.
func DocumentFileName(id string, precision int) (string, error) {
	return ArtifactFileName(id, precision, "", "html")
}

// ArtifactFileName names a file derived from a document id, such as the
// header and footer pages staged next to the document ("<id>-header.html").
func ArtifactFileName(id string, precision int, suffix, extension string) (string, error) {
	if precision < 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPrecision, precision)
	}
	if err := ValidateExtension(extension); err != nil {
		return "", err
	}
	if id == "" || strings.ContainsAny(id+suffix, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, id+suffix)
	}

	runes := []rune(id)
	if len(runes) > precision {
		runes = runes[:precision]
	}
	name := string(runes)
	if suffix != "" {
		name += "-" + suffix
	}
	return name + "." + extension, nil
}

// maxNameAttempts bounds the numbered variants tried when a name is taken.
const maxNameAttempts = 100

// TempFiles stages files for a single conversion and removes them afterwards.
//
// Every successful Write records its path. Cleanup removes all of them unless
// Keep is set, in which case the files are left for inspection. A TempFiles
// is safe for concurrent use, but conversions normally own one each.
type TempFiles struct {
	Dir    string // empty means os.TempDir()
	Keep   bool
	Logger *zap.Logger

	mu    sync.Mutex
	paths []string
}

// NewTempFiles returns a manager writing into dir.
func NewTempFiles(dir string, keep bool, logger *zap.Logger) *TempFiles {
	return &TempFiles{Dir: dir, Keep: keep, Logger: logger}
}

// Write stores content as UTF-8 text under name in the temp directory and
// returns the absolute path. Existing files are never overwritten: when name
// is taken, "<base>_2<ext>", "<base>_3<ext>" and so on are tried, so two
// documents whose ids share a prefix never stage into the same file.
func (t *TempFiles) Write(name, content string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	dir := t.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTempDir, err)
	}
	if !DirExists(abs) {
		return "", fmt.Errorf("%w: %s is not a directory", ErrTempDir, abs)
	}

	f, err := createExclusive(abs, name)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	t.mu.Lock()
	t.paths = append(t.paths, path)
	t.mu.Unlock()

	t.logger().Debug("temp file written", zap.String("path", path), zap.Int("bytes", len(content)))
	return path, nil
}

// createExclusive creates name in dir, or the first free numbered variant.
func createExclusive(dir, name string) (*os.File, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for attempt := 1; ; attempt++ {
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 -- name checked for separators
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating temp file: %w", err)
		}
		if attempt >= maxNameAttempts {
			return nil, fmt.Errorf("%w: %s and %d numbered variants exist", ErrNameTaken, name, maxNameAttempts-1)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, attempt+1, ext)
	}
}

// Paths returns the recorded paths in write order.
func (t *TempFiles) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths...)
}

// Cleanup removes every recorded file. Failures are logged and swallowed so
// cleanup never masks the conversion result. With Keep set nothing is removed.
func (t *TempFiles) Cleanup() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	logger := t.logger()
	if t.Keep {
		for _, p := range paths {
			logger.Info("keeping temp file", zap.String("path", p))
		}
		return
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Error("failed to remove temp file", zap.String("path", p), zap.Error(err))
		}
	}
}

func (t *TempFiles) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}
