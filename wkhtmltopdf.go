package blockdoc

import (
	"context"
)

// WkhtmltopdfConverter renders HTML to PDF with the wkhtmltopdf program.
type WkhtmltopdfConverter struct {
	cfg converterConfig
}

// NewWkhtmltopdfConverter creates a wkhtmltopdf backend.
func NewWkhtmltopdfConverter(opts ...ConverterOption) *WkhtmltopdfConverter {
	return &WkhtmltopdfConverter{cfg: newConverterConfig(opts)}
}

// Name implements HTMLConverter.
func (c *WkhtmltopdfConverter) Name() string { return BackendWkhtmltopdf }

// Convert implements HTMLConverter. The output is checked to be a PDF with
// at least one page.
func (c *WkhtmltopdfConverter) Convert(ctx context.Context, req ConvertRequest) (string, error) {
	return runConversion(ctx, c.cfg, backendSpec{
		name:      BackendWkhtmltopdf,
		command:   "wkhtmltopdf",
		buildArgs: wkhtmltopdfArgs,
		verify:    verifyPDF,
	}, req)
}

func wkhtmltopdfArgs(req ConvertRequest) ([]string, error) {
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		// Relative resources are rewritten to file:// URLs, which newer
		// releases refuse to load without this flag.
		"--enable-local-file-access",
		"--zoom", formatFloat(req.Zoom),
		"--page-size", string(req.PageSize),
		"--orientation", string(req.Orientation),
	}

	if req.HeaderFile != "" {
		args = append(args, "--header-html", req.HeaderFile)
		if req.HeaderSpacing != nil {
			args = append(args, "--header-spacing", formatFloat(*req.HeaderSpacing))
		}
	}
	if req.FooterFile != "" {
		args = append(args, "--footer-html", req.FooterFile)
		if req.FooterSpacing != nil {
			args = append(args, "--footer-spacing", formatFloat(*req.FooterSpacing))
		}
	}

	args = append(args, extraArgs(req.Extra, false)...)
	return append(args, req.InputFile, req.OutputFile), nil
}

// Compile-time interface check.
var _ HTMLConverter = (*WkhtmltopdfConverter)(nil)
