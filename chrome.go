package blockdoc

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// chromeCommand is the executable name looked up in the environment bin directory.
const chromeCommand = "chromium"

// ChromeConverter prints HTML to PDF with a headless Chrome or Chromium.
//
// The executable is looked up in the environment bin directory first, then
// where go-rod's launcher finds an installed browser. Chrome takes the page
// size from the document's CSS @page rule and has no header/footer files,
// so those request fields are not forwarded.
type ChromeConverter struct {
	cfg      converterConfig
	lookPath func() (string, bool)
}

// NewChromeConverter creates a headless Chrome backend.
func NewChromeConverter(opts ...ConverterOption) *ChromeConverter {
	return &ChromeConverter{
		cfg:      newConverterConfig(opts),
		lookPath: launcher.LookPath,
	}
}

// Name implements HTMLConverter.
func (c *ChromeConverter) Name() string { return BackendChrome }

// Convert implements HTMLConverter.
func (c *ChromeConverter) Convert(ctx context.Context, req ConvertRequest) (string, error) {
	if req.HeaderFile != "" || req.FooterFile != "" {
		c.cfg.logger.Warn("chrome does not support header or footer files, ignoring them",
			zap.String("header", req.HeaderFile),
			zap.String("footer", req.FooterFile))
	}
	c.cfg.logger.Debug("chrome page size follows the document @page rule",
		zap.String("pageSize", string(req.PageSize)),
		zap.String("orientation", string(req.Orientation)))

	return runConversion(ctx, c.cfg, backendSpec{
		name:      BackendChrome,
		command:   chromeCommand,
		lookPath:  c.lookPath,
		buildArgs: chromeArgs,
		verify:    verifyPDF,
	}, req)
}

func chromeArgs(req ConvertRequest) ([]string, error) {
	input, err := fileURL(req.InputFile)
	if err != nil {
		return nil, err
	}
	output, err := filepath.Abs(req.OutputFile)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-pdf-header-footer",
		"--print-to-pdf=" + output,
	}
	if req.Zoom != 1 {
		args = append(args, "--force-device-scale-factor="+formatFloat(req.Zoom))
	}
	args = append(args, extraArgs(req.Extra, true)...)
	return append(args, input), nil
}

// fileURL converts a local path to an absolute file:// URL.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letter
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}

// Compile-time interface check.
var _ HTMLConverter = (*ChromeConverter)(nil)
