package blockdoc

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-blockdoc/internal/process"
)

// HTMLConverter turns an HTML file into an output document by running an
// external renderer. Implementations hold no per-conversion state and may
// be shared between goroutines.
type HTMLConverter interface {
	// Name returns the backend name, as accepted by NewConverter.
	Name() string

	// Convert renders req.InputFile into req.OutputFile and returns the
	// output path. It blocks until the renderer exits.
	Convert(ctx context.Context, req ConvertRequest) (string, error)
}

// CommandRunner runs an external program and captures its output.
type CommandRunner = process.CommandRunner

// CommandResult holds the captured output of a successful run.
type CommandResult = process.Result

// PageSize names a paper format.
type PageSize string

// Supported page sizes.
const (
	PageA3     PageSize = "A3"
	PageA4     PageSize = "A4"
	PageA5     PageSize = "A5"
	PageLetter PageSize = "Letter"
	PageLegal  PageSize = "Legal"
)

// Orientation is the page orientation.
type Orientation string

// Supported orientations.
const (
	Portrait  Orientation = "Portrait"
	Landscape Orientation = "Landscape"
)

// pageDimensions holds portrait width and height in millimeters.
var pageDimensions = map[PageSize][2]float64{
	PageA3:     {297, 420},
	PageA4:     {210, 297},
	PageA5:     {148, 210},
	PageLetter: {215.9, 279.4},
	PageLegal:  {215.9, 355.6},
}

// cssPixelsPerMM converts millimeters to CSS pixels (96 per inch).
const cssPixelsPerMM = 96 / 25.4

// ParsePageSize returns the page size matching name, case-insensitively.
// An empty name selects A4.
func ParsePageSize(name string) (PageSize, error) {
	if name == "" {
		return PageA4, nil
	}
	for size := range pageDimensions {
		if strings.EqualFold(string(size), name) {
			return size, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of A3, A4, A5, Letter, Legal)", ErrInvalidPageSize, name)
}

// ParseOrientation returns the orientation matching name, case-insensitively.
// An empty name selects Portrait.
func ParseOrientation(name string) (Orientation, error) {
	switch {
	case name == "", strings.EqualFold(name, string(Portrait)):
		return Portrait, nil
	case strings.EqualFold(name, string(Landscape)):
		return Landscape, nil
	default:
		return "", fmt.Errorf("%w: %q (expected Portrait or Landscape)", ErrInvalidOrientation, name)
	}
}

// PixelSize returns the page width and height in CSS pixels.
func (p PageSize) PixelSize(o Orientation) (width, height int) {
	dims, ok := pageDimensions[p]
	if !ok {
		return 0, 0
	}
	w := int(math.Round(dims[0] * cssPixelsPerMM))
	h := int(math.Round(dims[1] * cssPixelsPerMM))
	if o == Landscape {
		return h, w
	}
	return w, h
}

// ConvertRequest describes one conversion.
type ConvertRequest struct {
	InputFile  string // HTML file to render
	OutputFile string // destination, its extension selects image formats

	HeaderFile    string   // optional HTML page repeated at the top of each page
	HeaderSpacing *float64 // mm between header and content; nil leaves the renderer default
	FooterFile    string
	FooterSpacing *float64

	Zoom        float64     // 0 means 1
	PageSize    PageSize    // empty means A4
	Orientation Orientation // empty means Portrait

	// Extra holds backend flags without leading dashes. An empty value
	// emits the bare flag.
	Extra map[string]string
}

// Validate checks the request after applying defaults.
func (r ConvertRequest) Validate() error {
	_, err := r.normalized()
	return err
}

// normalized applies defaults, canonicalizes enums and validates.
func (r ConvertRequest) normalized() (ConvertRequest, error) {
	if r.InputFile == "" || r.OutputFile == "" {
		return r, ErrMissingPath
	}
	if r.Zoom == 0 {
		r.Zoom = 1
	}
	if r.Zoom < 0 || math.IsNaN(r.Zoom) || math.IsInf(r.Zoom, 0) {
		return r, fmt.Errorf("%w: must be positive, got %g", ErrInvalidZoom, r.Zoom)
	}

	size, err := ParsePageSize(string(r.PageSize))
	if err != nil {
		return r, err
	}
	r.PageSize = size

	orientation, err := ParseOrientation(string(r.Orientation))
	if err != nil {
		return r, err
	}
	r.Orientation = orientation

	if r.HeaderSpacing != nil && *r.HeaderSpacing < 0 {
		return r, fmt.Errorf("%w: header spacing must not be negative", ErrInvalidSettings)
	}
	if r.FooterSpacing != nil && *r.FooterSpacing < 0 {
		return r, fmt.Errorf("%w: footer spacing must not be negative", ErrInvalidSettings)
	}
	for key := range r.Extra {
		if key == "" || strings.HasPrefix(key, "-") {
			return r, fmt.Errorf("%w: extra flag %q must be given without dashes", ErrInvalidSettings, key)
		}
	}
	return r, nil
}

// Conversion stages reported by ConversionError.
const (
	StageValidate = "validate"
	StageInvoke   = "invoke"
	StageVerify   = "verify"
)

// ConversionError reports the backend and stage at which a conversion failed.
// It unwraps to the underlying error, so errors.Is(err, ErrProcessFailed) and
// errors.As(err, **ExecError) work through it.
type ConversionError struct {
	Backend string
	Stage   string
	Err     error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConverterOption configures a converter backend.
type ConverterOption func(*converterConfig)

type converterConfig struct {
	logger    *zap.Logger
	runner    CommandRunner
	binDir    string
	maxOutput int
}

// WithLogger sets the logger used for renderer invocations.
func WithLogger(logger *zap.Logger) ConverterOption {
	return func(c *converterConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRunner replaces the subprocess runner, mainly for tests.
func WithRunner(r CommandRunner) ConverterOption {
	return func(c *converterConfig) { c.runner = r }
}

// WithBinDir overrides the environment bin directory searched for local
// renderer binaries.
func WithBinDir(dir string) ConverterOption {
	return func(c *converterConfig) { c.binDir = dir }
}

// WithMaxOutput caps each captured renderer stream, in bytes.
// 0 disables the cap, as Settings.MaxOutputBytes does.
func WithMaxOutput(n int) ConverterOption {
	return func(c *converterConfig) { c.maxOutput = n }
}

func newConverterConfig(opts []ConverterOption) converterConfig {
	cfg := converterConfig{
		logger:    zap.NewNop(),
		maxOutput: DefaultMaxOutputBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runner == nil {
		cfg.runner = &process.ExecRunner{
			Logger:    cfg.logger,
			MaxOutput: runnerOutputCap(cfg.maxOutput),
		}
	}
	return cfg
}

// backendSpec describes what differs between backends; runConversion
// drives the shared flow.
type backendSpec struct {
	name    string
	command string

	// lookPath is consulted when no local binary exists. Optional.
	lookPath func() (string, bool)

	buildArgs func(req ConvertRequest) ([]string, error)
	verify    func(path string) error
}

// runConversion validates req, resolves the executable, runs it and checks
// the output. There is no retry: the first failure ends the conversion.
func runConversion(ctx context.Context, cfg converterConfig, spec backendSpec, req ConvertRequest) (string, error) {
	fail := func(stage string, err error) (string, error) {
		return "", &ConversionError{Backend: spec.name, Stage: stage, Err: err}
	}

	req, err := req.normalized()
	if err != nil {
		return fail(StageValidate, err)
	}

	args, err := spec.buildArgs(req)
	if err != nil {
		return fail(StageValidate, err)
	}

	exe := resolveExecutable(cfg, spec)
	cfg.logger.Debug("resolved renderer",
		zap.String("backend", spec.name),
		zap.String("executable", exe))

	if _, err := cfg.runner.Run(ctx, exe, args...); err != nil {
		return fail(StageInvoke, err)
	}

	if err := spec.verify(req.OutputFile); err != nil {
		return fail(StageVerify, err)
	}

	cfg.logger.Debug("conversion succeeded",
		zap.String("backend", spec.name),
		zap.String("output", req.OutputFile))
	return req.OutputFile, nil
}

// resolveExecutable prefers a binary in the environment bin directory, then
// the backend's own lookup, then the bare command name.
func resolveExecutable(cfg converterConfig, spec backendSpec) string {
	resolver := process.Resolver{BinDir: cfg.binDir}
	if local, ok := resolver.Local(spec.command); ok {
		return local
	}
	if spec.lookPath != nil {
		if path, ok := spec.lookPath(); ok {
			return path
		}
	}
	return spec.command
}

// extraArgs renders extras in key order. Each flag becomes "--key value", or
// "--key=value" when joined is set; empty values give "--key".
func extraArgs(extra map[string]string, joined bool) []string {
	var args []string
	for _, key := range slices.Sorted(maps.Keys(extra)) {
		value := extra[key]
		switch {
		case value == "":
			args = append(args, "--"+key)
		case joined:
			args = append(args, "--"+key+"="+value)
		default:
			args = append(args, "--"+key, value)
		}
	}
	return args
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Backend names accepted by NewConverter.
const (
	BackendWkhtmltopdf   = "wkhtmltopdf"
	BackendWkhtmltoimage = "wkhtmltoimage"
	BackendChrome        = "chrome"
)

// DefaultBackend is used when no backend name is given.
const DefaultBackend = BackendWkhtmltopdf

var backends = map[string]func(...ConverterOption) HTMLConverter{
	BackendWkhtmltopdf:   func(o ...ConverterOption) HTMLConverter { return NewWkhtmltopdfConverter(o...) },
	"pdf":                func(o ...ConverterOption) HTMLConverter { return NewWkhtmltopdfConverter(o...) },
	BackendWkhtmltoimage: func(o ...ConverterOption) HTMLConverter { return NewWkhtmltoimageConverter(o...) },
	"image":              func(o ...ConverterOption) HTMLConverter { return NewWkhtmltoimageConverter(o...) },
	BackendChrome:        func(o ...ConverterOption) HTMLConverter { return NewChromeConverter(o...) },
}

// NewConverter returns the backend registered under name ("wkhtmltopdf" or
// "pdf", "wkhtmltoimage" or "image", "chrome"). Matching is case-insensitive
// and an empty name selects DefaultBackend.
func NewConverter(name string, opts ...ConverterOption) (HTMLConverter, error) {
	if name == "" {
		name = DefaultBackend
	}
	factory, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	return factory(opts...), nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	return slices.Sorted(maps.Keys(backends))
}
