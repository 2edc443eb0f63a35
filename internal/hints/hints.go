// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-blockdoc/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a common CI environment variable is set.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForRendererNotFound returns hints for a renderer executable that could not
// be started. Chrome in containers also needs its sandbox disabled.
func ForRendererNotFound(command string) string {
	hints := []string{"install " + command + " and put it on PATH, or into $VIRTUAL_ENV/bin"}

	if strings.Contains(command, "chrom") && (inCI() || IsInContainer()) {
		hints = append(hints, "in Docker/CI add renderer.extra no-sandbox to the config")
	}

	return formatHints(hints)
}

// ForRendererFailed returns hints derived from a renderer's stderr.
func ForRendererFailed(stderr string) string {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "cannot connect to x server"):
		return format("use a wkhtmltopdf build with patched qt, or run under xvfb-run")
	case strings.Contains(lower, "protocolunknownerror"), strings.Contains(lower, "contentnotfounderror"):
		return format("check that linked files exist; relative paths resolve against the source directory")
	case strings.Contains(lower, "no usable sandbox"):
		return format("add renderer.extra no-sandbox to the config when running as root")
	default:
		return ""
	}
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-blockdoc/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-blockdoc") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForTempDir returns hints for an unusable temp directory.
func ForTempDir() string {
	return format("use --tmp-dir with an existing writable directory")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
