// Package config loads the YAML configuration of the blockdoc CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-blockdoc/internal/fileutil"
	"github.com/alnah/go-blockdoc/internal/logging"
	"github.com/alnah/go-blockdoc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxNameLength        = 64 // backend, style and template set names
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxDateLength        = 64
	MaxExtraKeyLength    = 64
	MaxExtraValueLength  = 1024
)

// Known values, kept in sync with the renderer registry of the root package.
var (
	knownBackends     = []string{"wkhtmltopdf", "pdf", "wkhtmltoimage", "image", "chrome"}
	knownPageSizes    = []string{"a3", "a4", "a5", "letter", "legal"}
	knownOrientations = []string{"portrait", "landscape"}
)

// configDirName is the directory under os.UserConfigDir searched for named configs.
const configDirName = "go-blockdoc"

// Config holds all configuration for document conversion.
type Config struct {
	Settings SettingsConfig `yaml:"settings"`
	Renderer RendererConfig `yaml:"renderer"`
	Assets   AssetsConfig   `yaml:"assets"`
	Output   OutputConfig   `yaml:"output"`
	Logging  logging.Config `yaml:"logging"`
}

// SettingsConfig mirrors the conversion settings. Pointer fields
// distinguish "unset" from an explicit zero.
type SettingsConfig struct {
	IDPrecision     int    `yaml:"idPrecision"`     // 0 = default (6)
	TempHTMLDir     string `yaml:"tempHtmlDir"`     // empty = os.TempDir()
	RemoveTempFiles *bool  `yaml:"removeTempFiles"` // nil = true
	MaxOutputBytes  *int   `yaml:"maxOutputBytes"`  // nil = 1 MiB, 0 = no cap
}

// RendererConfig selects the backend and its page defaults.
type RendererConfig struct {
	Backend       string            `yaml:"backend"`     // default "wkhtmltopdf"
	PageSize      string            `yaml:"pageSize"`    // default "A4"
	Orientation   string            `yaml:"orientation"` // default "Portrait"
	Zoom          float64           `yaml:"zoom"`        // 0 = 1.0
	Templates     string            `yaml:"templates"`   // header/footer template set, empty = none
	Date          string            `yaml:"date"`        // template date: literal, "today" or "today:LAYOUT"
	HeaderSpacing *float64          `yaml:"headerSpacing"`
	FooterSpacing *float64          `yaml:"footerSpacing"`
	Extra         map[string]string `yaml:"extra"` // backend flags passed through
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Style    string `yaml:"style"`    // Empty = "default"
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same as source
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	s := c.Settings
	if s.IDPrecision < 0 {
		return fmt.Errorf("%w: settings.idPrecision must be at least 1, got %d", ErrInvalidValue, s.IDPrecision)
	}
	if s.MaxOutputBytes != nil && *s.MaxOutputBytes < 0 {
		return fmt.Errorf("%w: settings.maxOutputBytes must not be negative, got %d", ErrInvalidValue, *s.MaxOutputBytes)
	}
	if err := validateFieldLength("settings.tempHtmlDir", s.TempHTMLDir, MaxPathLength); err != nil {
		return err
	}

	r := c.Renderer
	if err := validateEnum("renderer.backend", r.Backend, MaxNameLength, knownBackends); err != nil {
		return err
	}
	if err := validateEnum("renderer.pageSize", r.PageSize, MaxPageSizeLength, knownPageSizes); err != nil {
		return err
	}
	if err := validateEnum("renderer.orientation", r.Orientation, MaxOrientationLength, knownOrientations); err != nil {
		return err
	}
	if r.Zoom < 0 {
		return fmt.Errorf("%w: renderer.zoom must be positive, got %g", ErrInvalidValue, r.Zoom)
	}
	if r.HeaderSpacing != nil && *r.HeaderSpacing < 0 {
		return fmt.Errorf("%w: renderer.headerSpacing must not be negative", ErrInvalidValue)
	}
	if r.FooterSpacing != nil && *r.FooterSpacing < 0 {
		return fmt.Errorf("%w: renderer.footerSpacing must not be negative", ErrInvalidValue)
	}
	if err := validateFieldLength("renderer.templates", r.Templates, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("renderer.date", r.Date, MaxDateLength); err != nil {
		return err
	}
	for key, value := range r.Extra {
		if key == "" || strings.HasPrefix(key, "-") {
			return fmt.Errorf("%w: renderer.extra key %q (give the flag name without dashes)", ErrInvalidValue, key)
		}
		if err := validateFieldLength("renderer.extra key", key, MaxExtraKeyLength); err != nil {
			return err
		}
		if err := validateFieldLength("renderer.extra."+key, value, MaxExtraValueLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.style", c.Assets.Style, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// RemoveTempFilesOrDefault reports the effective cleanup flag (default true).
func (s SettingsConfig) RemoveTempFilesOrDefault() bool {
	if s.RemoveTempFiles == nil {
		return true
	}
	return *s.RemoveTempFiles
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(fieldName, value string, maxLength int, allowed []string) error {
	if err := validateFieldLength(fieldName, value, maxLength); err != nil {
		return err
	}
	if value == "" {
		return nil
	}
	if slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s %q (expected one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns a configuration where every field selects its default.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := yamlutil.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-blockdoc/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
