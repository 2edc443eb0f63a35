package blockdoc

// Notes:
// - Save tests use fakeRunner, which snapshots staged HTML while "rendering",
//   so they can assert both what the renderer saw and that cleanup ran after.

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

func testSettings(t *testing.T) Settings {
	t.Helper()
	s := DefaultSettings()
	s.TempHTMLDir = t.TempDir()
	return s
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// ---------------------------------------------------------------------------
// TestNewDocument - Identifiers
// ---------------------------------------------------------------------------

func TestNewDocument_ID(t *testing.T) {
	t.Parallel()

	a := NewDocument(NewRaw("x"))
	b := NewDocument(NewRaw("x"))
	if !hexID.MatchString(a.ID()) {
		t.Errorf("ID() = %q, want 32 hex characters", a.ID())
	}
	if a.ID() == b.ID() {
		t.Error("two documents share an id")
	}

	if got := NewDocument(nil, WithDocumentID("report-42")).ID(); got != "report-42" {
		t.Errorf("ID() = %q, want report-42", got)
	}
	if got := NewDocument(nil, WithDocumentID("")).ID(); !hexID.MatchString(got) {
		t.Errorf("empty WithDocumentID replaced the generated id: %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestDocument_HTML - Page structure and styles
// ---------------------------------------------------------------------------

func TestDocument_HTML(t *testing.T) {
	t.Parallel()

	md, err := NewMarkdown("# Heading\n\nBody text.")
	if err != nil {
		t.Fatal(err)
	}
	doc := NewDocument(NewContainer(md, NewPre("x < y")), WithTitle("Q3 & Q4"), WithCSS("p { color: red; }"))

	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<meta charset="utf-8"/>`,
		"<title>Q3 &amp; Q4</title>",
		".blockdoc-container",
		"p { color: red; }",
		`<div class="blockdoc-container">`,
		"Heading</h1>",
		"<pre>x &lt; y</pre>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML() missing %q", want)
		}
	}
	if strings.Index(out, ".blockdoc-container") > strings.Index(out, "p { color: red; }") {
		t.Error("extra CSS precedes the base stylesheet")
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html><html><head>") {
		t.Errorf("HTML() starts with %q", out[:min(len(out), 40)])
	}
}

func TestDocument_HTML_Stylesheet(t *testing.T) {
	t.Parallel()

	t.Run("named style", func(t *testing.T) {
		t.Parallel()

		out, err := NewDocument(NewRaw("x"), WithStylesheet("compact")).HTML()
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if !strings.Contains(out, "9pt") {
			t.Error("compact style not embedded")
		}
	})

	t.Run("css file path", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "mine.css"), []byte("h1 { color: teal; }"))
		out, err := NewDocument(NewRaw("x"), WithStylesheet(path)).HTML()
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if !strings.Contains(out, "teal") || strings.Contains(out, ".blockdoc-container") {
			t.Error("file stylesheet not used in place of the default")
		}
	})

	t.Run("no stylesheet", func(t *testing.T) {
		t.Parallel()

		out, err := NewDocument(NewRaw("x"), WithStylesheet("")).HTML()
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if strings.Contains(out, "<style>") {
			t.Error("empty stylesheet rendered a <style> element")
		}
	})

	t.Run("unknown style", func(t *testing.T) {
		t.Parallel()

		if _, err := NewDocument(NewRaw("x"), WithStylesheet("fancy")).HTML(); !errors.Is(err, ErrStyleNotFound) {
			t.Errorf("HTML() error = %v, want ErrStyleNotFound", err)
		}
	})

	t.Run("missing css file", func(t *testing.T) {
		t.Parallel()

		_, err := NewDocument(NewRaw("x"), WithStylesheet(filepath.Join(t.TempDir(), "none.css"))).HTML()
		if !errors.Is(err, ErrStyleNotFound) {
			t.Errorf("HTML() error = %v, want ErrStyleNotFound", err)
		}
	})

	t.Run("custom loader", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		if err := os.MkdirAll(filepath.Join(base, "styles"), 0o750); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(base, "styles", "brand.css"), []byte("body { color: purple; }"))
		loader, err := NewAssetLoader(base)
		if err != nil {
			t.Fatal(err)
		}

		out, err := NewDocument(NewRaw("x"), WithAssetLoader(loader), WithStylesheet("brand")).HTML()
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if !strings.Contains(out, "purple") {
			t.Error("custom loader style not used")
		}
	})
}

func TestDocument_HTML_SourceDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	doc := NewDocument(NewRaw(`<img src="img/chart.png"><a href="https://example.com">x</a>`), WithSourceDir(src))

	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(out, `src="file://`) || !strings.Contains(out, "img/chart.png") {
		t.Errorf("relative image not rewritten: %s", out)
	}
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Error("absolute URL was rewritten")
	}
}

func TestDocument_HTML_RenderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	if _, err := NewDocument(failingBlock{err: boom}).HTML(); !errors.Is(err, boom) {
		t.Errorf("HTML() error = %v, want boom", err)
	}
}

// ---------------------------------------------------------------------------
// TestDocument_Save - Staging, conversion and cleanup
// ---------------------------------------------------------------------------

func TestDocument_Save(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	outDir := t.TempDir()
	runner := &fakeRunner{output: minimalPDF()}
	conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))

	doc := NewDocument(NewRaw("<p>hello</p>"), WithDocumentID("0123456789abcdef"), WithTitle("T"))
	out, err := doc.Save(context.Background(), conv, settings, filepath.Join(outDir, "doc.pdf"),
		WithPageSize(PageA5), WithOrientation(Landscape), WithZoom(0.8), WithExtra("dpi", "150"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if out != filepath.Join(outDir, "doc.pdf") {
		t.Errorf("Save() = %q", out)
	}

	staged := filepath.Join(settings.TempHTMLDir, "012345.html")
	content, ok := runner.staged[staged]
	if !ok {
		t.Fatalf("renderer did not receive %s, got %v", staged, runner.lastCall())
	}
	if !strings.Contains(content, "<p>hello</p>") {
		t.Errorf("staged HTML missing content: %s", content)
	}

	call := strings.Join(runner.lastCall(), " ")
	for _, want := range []string{"--page-size A5", "--orientation Landscape", "--zoom 0.8", "--dpi 150"} {
		if !strings.Contains(call, want) {
			t.Errorf("command %q missing %q", call, want)
		}
	}

	if left := dirEntries(t, settings.TempHTMLDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestDocument_Save_KeepTempFiles(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.RemoveTempFiles = false
	settings.IDPrecision = 4
	outDir := t.TempDir()

	core, logs := observer.New(zap.InfoLevel)
	conv := NewWkhtmltopdfConverter(WithRunner(&fakeRunner{output: minimalPDF()}), WithBinDir(outDir))
	doc := NewDocument(NewRaw("x"), WithDocumentID("abcdefgh"))

	if _, err := doc.Save(context.Background(), conv, settings, filepath.Join(outDir, "o.pdf"), WithSaveLogger(zap.New(core))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if left := dirEntries(t, settings.TempHTMLDir); !slices.Equal(left, []string{"abcd.html"}) {
		t.Errorf("temp dir = %v, want [abcd.html]", left)
	}
	if logs.FilterMessage("keeping temp file").Len() != 1 {
		t.Errorf("expected a keep log entry, got %v", logs.All())
	}
}

func TestDocument_Save_HeaderFooter(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	outDir := t.TempDir()
	runner := &fakeRunner{output: minimalPDF()}
	conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))
	doc := NewDocument(NewRaw("body"), WithDocumentID("feedface00"), WithTitle("Annual"))

	_, err := doc.Save(context.Background(), conv, settings, filepath.Join(outDir, "o.pdf"),
		WithHeader(NewSpan("<b>HEAD</b>")),
		WithHeaderSpacing(4),
		WithFooterHTML("<html><body>FOOT</body></html>"),
		WithFooterSpacing(2.5))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	header := filepath.Join(settings.TempHTMLDir, "feedfa-header.html")
	footer := filepath.Join(settings.TempHTMLDir, "feedfa-footer.html")
	if !strings.Contains(runner.staged[header], "<span><b>HEAD</b></span>") {
		t.Errorf("header page = %q", runner.staged[header])
	}
	if !strings.Contains(runner.staged[header], "<title>Annual</title>") {
		t.Error("header block not rendered as a full page")
	}
	if runner.staged[footer] != "<html><body>FOOT</body></html>" {
		t.Errorf("footer page = %q", runner.staged[footer])
	}

	call := strings.Join(runner.lastCall(), " ")
	for _, want := range []string{"--header-html " + header, "--header-spacing 4", "--footer-html " + footer, "--footer-spacing 2.5"} {
		if !strings.Contains(call, want) {
			t.Errorf("command %q missing %q", call, want)
		}
	}
	if left := dirEntries(t, settings.TempHTMLDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestDocument_Save_Templates(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	outDir := t.TempDir()
	runner := &fakeRunner{output: minimalPDF()}
	conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))
	doc := NewDocument(NewRaw("body"), WithDocumentID("cafe0001"), WithTitle("Budget"))
	ts := NewTemplateSet("t", "<p>{{.Title}} {{.Date}}</p>", "<p>{{.DocumentID}}</p>")

	_, err := doc.Save(context.Background(), conv, settings, filepath.Join(outDir, "o.pdf"),
		WithTemplates(ts, "2026-10-18"),
		WithFooterHTML("<p>explicit</p>"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	header := runner.staged[filepath.Join(settings.TempHTMLDir, "cafe00-header.html")]
	footer := runner.staged[filepath.Join(settings.TempHTMLDir, "cafe00-footer.html")]
	if header != "<p>Budget 2026-10-18</p>" {
		t.Errorf("header = %q", header)
	}
	if footer != "<p>explicit</p>" {
		t.Errorf("footer = %q, want explicit page to win over template", footer)
	}
}

func TestDocument_Save_Errors(t *testing.T) {
	t.Parallel()

	conv := NewWkhtmltopdfConverter(WithRunner(&fakeRunner{output: minimalPDF()}), WithBinDir(t.TempDir()))
	doc := NewDocument(NewRaw("x"))

	tests := []struct {
		name     string
		conv     HTMLConverter
		settings func(Settings) Settings
		out      string
		opts     []SaveOption
		wantErr  error
	}{
		{
			name:     "invalid settings",
			conv:     conv,
			settings: func(s Settings) Settings { s.IDPrecision = 0; return s },
			out:      "o.pdf",
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "nil converter",
			settings: func(s Settings) Settings { return s },
			out:      "o.pdf",
			wantErr:  ErrUnknownBackend,
		},
		{
			name:     "empty output path",
			conv:     conv,
			settings: func(s Settings) Settings { return s },
			wantErr:  ErrMissingPath,
		},
		{
			name:     "temp dir missing",
			conv:     conv,
			settings: func(s Settings) Settings { s.TempHTMLDir = filepath.Join(s.TempHTMLDir, "absent"); return s },
			out:      "o.pdf",
			wantErr:  ErrTempFile,
		},
		{
			name:     "broken template",
			conv:     conv,
			settings: func(s Settings) Settings { return s },
			out:      "o.pdf",
			opts:     []SaveOption{WithTemplates(NewTemplateSet("b", "{{", ""), "")},
			wantErr:  ErrTemplateRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := doc.Save(context.Background(), tt.conv, tt.settings(testSettings(t)), tt.out, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocument_Save_Zoom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []SaveOption
		wantArg string
		wantErr error
	}{
		{name: "unset renders at 1", wantArg: "--zoom 1"},
		{name: "explicit", opts: []SaveOption{WithZoom(1.5)}, wantArg: "--zoom 1.5"},
		{name: "explicit zero", opts: []SaveOption{WithZoom(0)}, wantErr: ErrInvalidZoom},
		{name: "negative", opts: []SaveOption{WithZoom(-0.5)}, wantErr: ErrInvalidZoom},
		{name: "NaN", opts: []SaveOption{WithZoom(math.NaN())}, wantErr: ErrInvalidZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outDir := t.TempDir()
			runner := &fakeRunner{output: minimalPDF()}
			conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))

			_, err := NewDocument(NewRaw("x")).Save(context.Background(), conv, testSettings(t),
				filepath.Join(outDir, "o.pdf"), tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Save() error = %v, want %v", err, tt.wantErr)
				}
				if len(runner.calls) != 0 {
					t.Errorf("renderer ran %d times for a rejected zoom", len(runner.calls))
				}
				return
			}
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if call := strings.Join(runner.lastCall(), " "); !strings.Contains(call, tt.wantArg) {
				t.Errorf("command %q missing %q", call, tt.wantArg)
			}
		})
	}
}

func TestDocument_Save_CleansUpOnFailure(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	runner := &fakeRunner{err: &ExecError{CommandLine: "wkhtmltopdf a b", ExitCode: 1, Stderr: "boom"}}
	conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(t.TempDir()))

	_, err := NewDocument(NewRaw("x")).Save(context.Background(), conv, settings, "o.pdf", WithHeaderHTML("<p>h</p>"))
	if err == nil {
		t.Fatal("Save() succeeded, want error")
	}
	if len(runner.staged) != 2 {
		t.Errorf("renderer saw %d staged files, want 2", len(runner.staged))
	}
	if left := dirEntries(t, settings.TempHTMLDir); len(left) != 0 {
		t.Errorf("temp files left behind after failure: %v", left)
	}
}

func TestDocument_Save_Concurrent(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.IDPrecision = 32
	outDir := t.TempDir()
	runner := &fakeRunner{output: minimalPDF()}
	conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := NewDocument(NewRaw(fmt.Sprintf("<p>doc %d</p>", i)))
			_, err := doc.Save(context.Background(), conv, settings, filepath.Join(outDir, fmt.Sprintf("%d.pdf", i)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Save() error = %v", err)
		}
	}
	if len(runner.staged) != n {
		t.Errorf("renderer saw %d distinct staged files, want %d", len(runner.staged), n)
	}
	if left := dirEntries(t, settings.TempHTMLDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

// stagingBarrier holds every renderer call until n conversions have staged
// their input, then records the HTML each output was rendered from.
type stagingBarrier struct {
	mu       sync.Mutex
	waiting  int
	ready    chan struct{}
	rendered map[string]string // output base name -> staged input
}

func newStagingBarrier(n int) *stagingBarrier {
	return &stagingBarrier{waiting: n, ready: make(chan struct{}), rendered: make(map[string]string)}
}

func (b *stagingBarrier) Run(_ context.Context, _ string, args ...string) (CommandResult, error) {
	b.mu.Lock()
	b.waiting--
	if b.waiting == 0 {
		close(b.ready)
	}
	b.mu.Unlock()

	select {
	case <-b.ready:
	case <-time.After(10 * time.Second):
		return CommandResult{}, errors.New("other conversions never reached the renderer")
	}

	output := outputArg(args)
	data, err := os.ReadFile(args[len(args)-2])
	if err != nil {
		return CommandResult{}, err
	}
	b.mu.Lock()
	b.rendered[filepath.Base(output)] = string(data)
	b.mu.Unlock()
	return CommandResult{}, os.WriteFile(output, minimalPDF(), 0o600)
}

func TestDocument_Save_SharedNamePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		precision int // 0 keeps the default
		ids       []string
		header    bool
	}{
		{name: "ids share the default prefix", ids: []string{"report-alpha", "report-beta"}},
		{name: "id equals another header page name", precision: 32, ids: []string{"abc", "abc-header"}, header: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := testSettings(t)
			if tt.precision > 0 {
				settings.IDPrecision = tt.precision
			}
			outDir := t.TempDir()
			runner := newStagingBarrier(len(tt.ids))
			conv := NewWkhtmltopdfConverter(WithRunner(runner), WithBinDir(outDir))

			errs := make([]error, len(tt.ids))
			var wg sync.WaitGroup
			for i, id := range tt.ids {
				wg.Add(1)
				go func() {
					defer wg.Done()
					doc := NewDocument(NewRaw("<p>body of "+id+"</p>"), WithDocumentID(id), WithStylesheet(""))
					var opts []SaveOption
					if tt.header {
						opts = append(opts, WithHeader(NewRaw("<p>header of "+id+"</p>")))
					}
					_, errs[i] = doc.Save(context.Background(), conv, settings, filepath.Join(outDir, id+".pdf"), opts...)
				}()
			}
			wg.Wait()

			for i, err := range errs {
				if err != nil {
					t.Fatalf("Save(%s) error = %v", tt.ids[i], err)
				}
			}
			for _, id := range tt.ids {
				html := runner.rendered[id+".pdf"]
				if !strings.Contains(html, "<p>body of "+id+"</p>") {
					t.Errorf("%s.pdf rendered from the wrong HTML:\n%s", id, html)
				}
			}
			if left := dirEntries(t, settings.TempHTMLDir); len(left) != 0 {
				t.Errorf("temp files left behind: %v", left)
			}
		})
	}
}
