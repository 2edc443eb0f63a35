package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// ErrInvalidExtra reports a malformed --extra value.
var ErrInvalidExtra = errors.New("invalid --extra value")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// rendererFlags select the backend and page layout.
type rendererFlags struct {
	backend          string
	pageSize         string
	orientation      string
	zoom             float64
	zoomSet          bool
	header           string
	footer           string
	headerSpacing    float64
	footerSpacing    float64
	headerSpacingSet bool
	footerSpacingSet bool
	templates        string
	date             string
	extra            []string
}

// settingsFlags override the staging settings.
type settingsFlags struct {
	keepTemp    bool
	tmpDir      string
	idPrecision int
}

// assetFlags select stylesheets and custom assets.
type assetFlags struct {
	style     string
	assetPath string
	noStyle   bool
}

// convertFlags holds every flag of the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	workers  int
	renderer rendererFlags
	settings settingsFlags
	assets   assetFlags
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log renderer invocations")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

func addRendererFlags(fs *flag.FlagSet, f *rendererFlags) {
	fs.StringVarP(&f.backend, "backend", "b", "", "renderer: wkhtmltopdf, wkhtmltoimage, chrome")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a3, a4, a5, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "orientation: portrait, landscape")
	fs.Float64Var(&f.zoom, "zoom", 0, "zoom factor (default 1)")
	fs.StringVar(&f.header, "header", "", "HTML file rendered as page header")
	fs.StringVar(&f.footer, "footer", "", "HTML file rendered as page footer")
	fs.Float64Var(&f.headerSpacing, "header-spacing", 0, "space between header and content, in mm")
	fs.Float64Var(&f.footerSpacing, "footer-spacing", 0, "space between footer and content, in mm")
	fs.StringVar(&f.templates, "templates", "", "header/footer template set name")
	fs.StringVar(&f.date, "date", "", "template date: literal, \"today\" or \"today:LAYOUT\"")
	fs.StringArrayVar(&f.extra, "extra", nil, "renderer flag as key=value, repeatable")
}

func addSettingsFlags(fs *flag.FlagSet, f *settingsFlags) {
	fs.BoolVar(&f.keepTemp, "keep-temp", false, "keep staged HTML files")
	fs.StringVar(&f.tmpDir, "tmp-dir", "", "directory for staged HTML files")
	fs.IntVar(&f.idPrecision, "id-precision", 0, "id characters used in temp file names")
}

func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "style name or CSS file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom styles and templates")
	fs.BoolVar(&f.noStyle, "no-style", false, "disable the stylesheet")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")

	addCommonFlags(fs, &f.common)
	addRendererFlags(fs, &f.renderer)
	addSettingsFlags(fs, &f.settings)
	addAssetFlags(fs, &f.assets)

	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.renderer.zoomSet = fs.Changed("zoom")
	f.renderer.headerSpacingSet = fs.Changed("header-spacing")
	f.renderer.footerSpacingSet = fs.Changed("footer-spacing")

	return f, fs.Args(), nil
}

// parseExtras turns "key=value" pairs into renderer flags. Leading dashes
// on the key are dropped and a missing "=" gives a bare flag.
func parseExtras(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	extra := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.TrimLeft(key, "-")
		if key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExtra, pair)
		}
		extra[key] = value
	}
	return extra, nil
}
