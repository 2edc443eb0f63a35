package blockdoc

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// imageFormats maps output extensions to wkhtmltoimage --format values.
var imageFormats = map[string]string{
	"png":  "png",
	"jpg":  "jpg",
	"jpeg": "jpg",
	"bmp":  "bmp",
	"svg":  "svg",
}

// WkhtmltoimageConverter renders HTML to a raster or SVG image with the
// wkhtmltoimage program. The format follows the output file extension.
// Running headers and footers are not supported by this renderer.
type WkhtmltoimageConverter struct {
	cfg converterConfig
}

// NewWkhtmltoimageConverter creates a wkhtmltoimage backend.
func NewWkhtmltoimageConverter(opts ...ConverterOption) *WkhtmltoimageConverter {
	return &WkhtmltoimageConverter{cfg: newConverterConfig(opts)}
}

// Name implements HTMLConverter.
func (c *WkhtmltoimageConverter) Name() string { return BackendWkhtmltoimage }

// Convert implements HTMLConverter. The page size only sets the image width.
func (c *WkhtmltoimageConverter) Convert(ctx context.Context, req ConvertRequest) (string, error) {
	if req.HeaderFile != "" || req.FooterFile != "" {
		c.cfg.logger.Warn("wkhtmltoimage does not support headers or footers, ignoring them",
			zap.String("header", req.HeaderFile),
			zap.String("footer", req.FooterFile))
	}

	return runConversion(ctx, c.cfg, backendSpec{
		name:      BackendWkhtmltoimage,
		command:   "wkhtmltoimage",
		buildArgs: wkhtmltoimageArgs,
		verify:    verifyImage,
	}, req)
}

// ImageFormat returns the wkhtmltoimage format for an output path.
func ImageFormat(outputPath string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), "."))
	format, ok := imageFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (expected .png, .jpg, .bmp or .svg)", ErrUnsupportedFormat, filepath.Ext(outputPath))
	}
	return format, nil
}

func wkhtmltoimageArgs(req ConvertRequest) ([]string, error) {
	format, err := ImageFormat(req.OutputFile)
	if err != nil {
		return nil, err
	}
	width, _ := req.PageSize.PixelSize(req.Orientation)

	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		"--zoom", formatFloat(req.Zoom),
		"--format", format,
		"--width", strconv.Itoa(width),
	}
	args = append(args, extraArgs(req.Extra, false)...)
	return append(args, req.InputFile, req.OutputFile), nil
}

// Compile-time interface check.
var _ HTMLConverter = (*WkhtmltoimageConverter)(nil)
