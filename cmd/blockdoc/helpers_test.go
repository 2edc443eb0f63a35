package main

// Notes:
// - Test infrastructure shared by the command tests: a recording converter
//   that copies the staged HTML to the output, and an Environment wired to it.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-blockdoc"
)

// fixedNow is the clock used by every test environment.
var fixedNow = time.Date(2026, time.March, 7, 9, 30, 0, 0, time.UTC)

// conversion is what the fake converter saw for one request.
type conversion struct {
	req    blockdoc.ConvertRequest
	html   string
	header string
	footer string
}

// fakeConverter records requests and writes the staged HTML as output.
type fakeConverter struct {
	name string
	err  error

	mu    sync.Mutex
	calls []conversion
}

var _ blockdoc.HTMLConverter = (*fakeConverter)(nil)

func (f *fakeConverter) Name() string {
	if f.name == "" {
		return blockdoc.BackendWkhtmltopdf
	}
	return f.name
}

func (f *fakeConverter) Convert(_ context.Context, req blockdoc.ConvertRequest) (string, error) {
	c := conversion{req: req, html: readOptional(req.InputFile)}
	c.header = readOptional(req.HeaderFile)
	c.footer = readOptional(req.FooterFile)

	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(req.OutputFile, []byte(c.html), 0o600); err != nil {
		return "", err
	}
	return req.OutputFile, nil
}

func (f *fakeConverter) conversions() []conversion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]conversion(nil), f.calls...)
}

func readOptional(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path) // #nosec G304 -- test file
	if err != nil {
		return ""
	}
	return string(data)
}

// testEnv returns an environment whose factory validates the backend name
// and then hands out conv.
func testEnv(conv blockdoc.HTMLConverter) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: &stdout,
		Stderr: &stderr,
		NewConverter: func(name string, _ ...blockdoc.ConverterOption) (blockdoc.HTMLConverter, error) {
			if _, err := blockdoc.NewConverter(name); err != nil {
				return nil, err
			}
			return conv, nil
		},
	}
	return env, &stdout, &stderr
}

// setupTestDir creates a temp directory with the given file structure.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test file
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
