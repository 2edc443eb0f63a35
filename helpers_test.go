package blockdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

// minimalPDF returns a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// encodeImage returns a small image encoded in format (png, jpg or bmp).
func encodeImage(t *testing.T, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpg":
		err = jpeg.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unknown image format %q", format)
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", format, err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// fakeRunner stands in for a renderer: it records each call, snapshots the
// staged HTML files it is given and writes output to the output argument.
type fakeRunner struct {
	output []byte // written to the output path; nil writes nothing
	err    error

	mu     sync.Mutex
	calls  [][]string
	staged map[string]string // path -> content, captured during Run
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))
	if f.staged == nil {
		f.staged = make(map[string]string)
	}
	for _, a := range args {
		path := strings.TrimPrefix(a, "file://")
		if strings.HasSuffix(path, ".html") {
			if data, err := os.ReadFile(filepath.FromSlash(path)); err == nil {
				f.staged[path] = string(data)
			}
		}
	}

	if f.err != nil {
		return CommandResult{}, f.err
	}
	if f.output != nil {
		if err := os.WriteFile(outputArg(args), f.output, 0o600); err != nil {
			return CommandResult{}, err
		}
	}
	return CommandResult{}, nil
}

func (f *fakeRunner) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// outputArg finds the output path: the --print-to-pdf value, else the last
// argument.
func outputArg(args []string) string {
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "--print-to-pdf="); ok {
			return v
		}
	}
	return args[len(args)-1]
}

func ptr[T any](v T) *T { return &v }
