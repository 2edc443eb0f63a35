package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-blockdoc"
	"github.com/alnah/go-blockdoc/internal/assets"
	"github.com/alnah/go-blockdoc/internal/config"
	"github.com/alnah/go-blockdoc/internal/dateutil"
	"github.com/alnah/go-blockdoc/internal/hints"
	"github.com/alnah/go-blockdoc/internal/logging"
	"github.com/alnah/go-blockdoc/internal/pipeline"
)

// dirPermissions is used for output directories: rwxr-x---.
const dirPermissions = 0o750

// maxWorkers bounds concurrent renderer processes.
const maxWorkers = 32

// Sentinel errors for the convert command.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrNoDocuments        = errors.New("no block documents found")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrAmbiguousOutput    = errors.New("output is a file but several inputs were given")
	ErrReadPageFile       = errors.New("failed to read header or footer file")
	ErrConversionsFailed  = errors.New("conversions failed")
)

// documentExtensions lists the inputs discovered when walking a directory.
var documentExtensions = []string{".md", ".markdown", ".yaml", ".yml"}

// outputExtensions lists the extensions that make -o name a file.
var outputExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".bmp", ".svg"}

// FileToConvert pairs an input document with its output path.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// conversionParams is everything shared by the documents of one run.
type conversionParams struct {
	conv     blockdoc.HTMLConverter
	settings blockdoc.Settings
	renderer config.RendererConfig
	docOpts  []blockdoc.DocumentOption
	saveOpts []blockdoc.SaveOption
	logger   *zap.Logger
}

// runConvert loads config, merges flags, and converts every input.
func runConvert(ctx context.Context, args []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if flags.common.config != "" {
		loaded, err := config.LoadConfig(flags.common.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.Logging.Output = env.Stderr
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	settings := buildSettings(cfg)
	if err := settings.Validate(); err != nil {
		return err
	}

	conv, err := env.NewConverter(cfg.Renderer.Backend,
		blockdoc.WithLogger(logger),
		blockdoc.WithMaxOutput(settings.MaxOutputBytes))
	if err != nil {
		return err
	}

	params, err := buildParams(cfg, flags, env, conv, settings, logger)
	if err != nil {
		return err
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = cfg.Output.DefaultDir
	}
	files, err := discoverInputs(args, outputDir, outputExtension(conv))
	if err != nil {
		return err
	}

	results := convertBatch(ctx, files, params, resolveWorkers(flags.workers, len(files)))
	if failed := printResults(results, conv, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		return &batchError{failed: failed, total: len(results), first: firstError(results)}
	}
	return nil
}

// batchError reports failed conversions whose details were already printed.
// It unwraps to the first failure so the exit code reflects its cause.
type batchError struct {
	failed int
	total  int
	first  error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d of %d conversions failed", e.failed, e.total)
}

func (e *batchError) Unwrap() []error {
	return []error{ErrConversionsFailed, e.first}
}

func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// mergeFlags merges CLI flags into cfg. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	r := &flags.renderer
	if r.backend != "" {
		cfg.Renderer.Backend = r.backend
	}
	if r.pageSize != "" {
		cfg.Renderer.PageSize = r.pageSize
	}
	if r.orientation != "" {
		cfg.Renderer.Orientation = r.orientation
	}
	if r.zoomSet {
		if !(r.zoom > 0) {
			return fmt.Errorf("%w: --zoom must be positive, got %g", blockdoc.ErrInvalidZoom, r.zoom)
		}
		cfg.Renderer.Zoom = r.zoom
	}
	if r.templates != "" {
		cfg.Renderer.Templates = r.templates
	}
	if r.date != "" {
		cfg.Renderer.Date = r.date
	}
	if r.headerSpacingSet {
		cfg.Renderer.HeaderSpacing = &r.headerSpacing
	}
	if r.footerSpacingSet {
		cfg.Renderer.FooterSpacing = &r.footerSpacing
	}
	extra, err := parseExtras(r.extra)
	if err != nil {
		return err
	}
	if len(extra) > 0 && cfg.Renderer.Extra == nil {
		cfg.Renderer.Extra = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		cfg.Renderer.Extra[k] = v
	}

	s := flags.settings
	if s.keepTemp {
		keep := false
		cfg.Settings.RemoveTempFiles = &keep
	}
	if s.tmpDir != "" {
		cfg.Settings.TempHTMLDir = s.tmpDir
	}
	if s.idPrecision != 0 {
		cfg.Settings.IDPrecision = s.idPrecision
	}

	if flags.assets.style != "" {
		cfg.Assets.Style = flags.assets.style
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}

	c := flags.common
	switch {
	case c.verbose:
		cfg.Logging.Level = "debug"
	case c.quiet:
		cfg.Logging.Level = "error"
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}
	return nil
}

// buildSettings freezes the staging settings for the run.
func buildSettings(cfg *config.Config) blockdoc.Settings {
	s := blockdoc.DefaultSettings()
	if cfg.Settings.IDPrecision > 0 {
		s.IDPrecision = cfg.Settings.IDPrecision
	}
	if cfg.Settings.TempHTMLDir != "" {
		s.TempHTMLDir = cfg.Settings.TempHTMLDir
	}
	s.RemoveTempFiles = cfg.Settings.RemoveTempFilesOrDefault()
	if cfg.Settings.MaxOutputBytes != nil {
		s.MaxOutputBytes = *cfg.Settings.MaxOutputBytes
	}
	return s
}

// buildParams resolves assets, headers and footers shared by every document.
func buildParams(cfg *config.Config, flags *convertFlags, env *Environment, conv blockdoc.HTMLConverter, settings blockdoc.Settings, logger *zap.Logger) (*conversionParams, error) {
	params := &conversionParams{
		conv:     conv,
		settings: settings,
		renderer: cfg.Renderer,
		logger:   logger,
	}

	loader, err := blockdoc.NewAssetLoader(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}
	params.docOpts = append(params.docOpts, blockdoc.WithAssetLoader(loader))
	switch {
	case flags.assets.noStyle:
		params.docOpts = append(params.docOpts, blockdoc.WithStylesheet(""))
	case cfg.Assets.Style != "":
		params.docOpts = append(params.docOpts, blockdoc.WithStylesheet(cfg.Assets.Style))
	}

	if cfg.Renderer.Templates != "" {
		ts, err := loader.LoadTemplateSet(cfg.Renderer.Templates)
		if err != nil {
			return nil, err
		}
		date, err := dateutil.Resolve(cfg.Renderer.Date, env.Now())
		if err != nil {
			return nil, err
		}
		params.saveOpts = append(params.saveOpts, blockdoc.WithTemplates(ts, date))
	}

	if flags.renderer.header != "" {
		page, err := readPageFile(flags.renderer.header)
		if err != nil {
			return nil, err
		}
		params.saveOpts = append(params.saveOpts, blockdoc.WithHeaderHTML(page))
	}
	if flags.renderer.footer != "" {
		page, err := readPageFile(flags.renderer.footer)
		if err != nil {
			return nil, err
		}
		params.saveOpts = append(params.saveOpts, blockdoc.WithFooterHTML(page))
	}

	if sp := cfg.Renderer.HeaderSpacing; sp != nil {
		params.saveOpts = append(params.saveOpts, blockdoc.WithHeaderSpacing(*sp))
	}
	if sp := cfg.Renderer.FooterSpacing; sp != nil {
		params.saveOpts = append(params.saveOpts, blockdoc.WithFooterSpacing(*sp))
	}
	for key, value := range cfg.Renderer.Extra {
		params.saveOpts = append(params.saveOpts, blockdoc.WithExtra(key, value))
	}
	params.saveOpts = append(params.saveOpts, blockdoc.WithSaveLogger(logger))

	return params, nil
}

func readPageFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided header/footer path
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadPageFile, err)
	}
	page, err := pipeline.RewriteRelativePaths(string(data), filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReadPageFile, path, err)
	}
	return page, nil
}

// pageOptions returns the layout for one document. Front matter wins over
// config and flags.
func pageOptions(meta documentMeta, r config.RendererConfig) ([]blockdoc.SaveOption, error) {
	size, err := blockdoc.ParsePageSize(cmp.Or(meta.PageSize, r.PageSize))
	if err != nil {
		return nil, err
	}
	orientation, err := blockdoc.ParseOrientation(cmp.Or(meta.Orientation, r.Orientation))
	if err != nil {
		return nil, err
	}
	opts := []blockdoc.SaveOption{
		blockdoc.WithPageSize(size),
		blockdoc.WithOrientation(orientation),
	}
	// Zero zoom in front matter or config means the renderer default.
	if zoom := cmp.Or(meta.Zoom, r.Zoom); zoom != 0 {
		opts = append(opts, blockdoc.WithZoom(zoom))
	}
	return opts, nil
}

// discoverInputs expands files and directories into conversions.
func discoverInputs(args []string, outputDir, ext string) ([]FileToConvert, error) {
	if len(args) == 0 {
		return nil, ErrNoInput
	}
	fileOutput := isFileOutput(outputDir)

	var files []FileToConvert
	for _, arg := range args {
		found, err := discoverFiles(arg, outputDir, ext)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, strings.Join(args, ", "))
	}
	if fileOutput && len(files) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousOutput, outputDir)
	}
	return files, nil
}

// discoverFiles finds the block documents under inputPath.
func discoverFiles(inputPath, outputDir, ext string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !isDocument(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []FileToConvert{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, outputDir, "", ext)}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isDocument(path) {
			return nil
		}
		files = append(files, FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, outputDir, inputPath, ext)})
		return nil
	})
	return files, err
}

func isDocument(path string) bool {
	return slices.Contains(documentExtensions, strings.ToLower(filepath.Ext(path)))
}

func isFileOutput(path string) bool {
	return slices.Contains(outputExtensions, strings.ToLower(filepath.Ext(path)))
}

// resolveOutputPath mirrors the input tree under outputDir, or writes next
// to the input when outputDir is empty.
func resolveOutputPath(inputPath, outputDir, baseInputDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+ext)
	}
	if isFileOutput(outputDir) {
		return outputDir
	}
	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, filepath.Dir(rel), base+ext)
		}
	}
	return filepath.Join(outputDir, base+ext)
}

// outputExtension picks the default output extension for a backend.
func outputExtension(conv blockdoc.HTMLConverter) string {
	if conv.Name() == blockdoc.BackendWkhtmltoimage {
		return ".png"
	}
	return ".pdf"
}

// validateWorkers checks that the worker count is within bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > maxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}

// resolveWorkers maps 0 to GOMAXPROCS, capped by the number of files.
func resolveWorkers(n, files int) int {
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, files))
}

// convertBatch converts files with at most workers renderers at a time.
// A failed document does not stop the others.
func convertBatch(ctx context.Context, files []FileToConvert, params *conversionParams, workers int) []ConversionResult {
	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, f, params)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// convertFile loads one document and saves it through the converter.
func convertFile(ctx context.Context, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	loaded, err := loadDocument(f.InputPath, params.docOpts...)
	if err != nil {
		return fail(err)
	}
	pageOpts, err := pageOptions(loaded.meta, params.renderer)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", f.InputPath, err))
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("creating output directory: %w", err))
	}

	params.logger.Debug("converting",
		zap.String("input", f.InputPath),
		zap.String("document", loaded.doc.ID()))

	opts := append(slices.Clone(params.saveOpts), pageOpts...)
	out, err := loaded.doc.Save(ctx, params.conv, params.settings, f.OutputPath, opts...)
	if err != nil {
		return fail(err)
	}
	result.OutputPath = out
	result.Duration = time.Since(start)
	return result
}

// printResults reports each conversion and returns the number of failures.
func printResults(results []ConversionResult, conv blockdoc.HTMLConverter, quiet, verbose bool, env *Environment) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err, conv.Name()))
			continue
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed
}

// hintFor returns an actionable hint for a conversion error, or "".
func hintFor(err error, backend string) string {
	var execErr *blockdoc.ExecError
	switch {
	case errors.Is(err, blockdoc.ErrProcessStart):
		return hints.ForRendererNotFound(backend)
	case errors.As(err, &execErr):
		return hints.ForRendererFailed(execErr.Stderr)
	case errors.Is(err, blockdoc.ErrTempFile):
		return hints.ForTempDir()
	case errors.Is(err, blockdoc.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.Styles())
	case errors.Is(err, fs.ErrPermission):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}

// printError writes a top-level error with its hint.
func printError(w io.Writer, err error) {
	hint := ""
	if errors.Is(err, config.ErrConfigNotFound) {
		hint = hints.ForConfigNotFound(strings.FieldsFunc(err.Error(), func(r rune) bool {
			return r == ' ' || r == ','
		}))
	}
	fmt.Fprintf(w, "error: %v%s\n", err, hint)
}
