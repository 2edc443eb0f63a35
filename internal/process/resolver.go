package process

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/alnah/go-blockdoc/internal/fileutil"
)

// Environment variables naming an isolated runtime environment.
// The first one set wins.
var envPrefixVars = []string{"VIRTUAL_ENV", "CONDA_PREFIX"}

// Resolver maps a logical command name to the binary to invoke.
//
// A binary inside the environment's bin directory wins over the bare name.
// When no local copy exists the bare name is returned and lookup is left to
// the OS search path at launch time; Resolve itself never fails.
type Resolver struct {
	// BinDir overrides the environment bin directory. Empty means EnvBinDir().
	BinDir string
}

// Resolve returns the local binary path for name, or name itself.
func (r Resolver) Resolve(name string) string {
	if local, ok := r.Local(name); ok {
		return local
	}
	return name
}

// Local returns the path of name inside the bin directory, if present.
func (r Resolver) Local(name string) (string, bool) {
	dir := r.BinDir
	if dir == "" {
		dir = EnvBinDir()
	}
	if dir == "" || name == "" {
		return "", false
	}

	candidates := []string{filepath.Join(dir, name)}
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		candidates = append(candidates, filepath.Join(dir, name+".exe"))
	}
	for _, c := range candidates {
		if fileutil.FileExists(c) {
			return c, true
		}
	}
	return "", false
}

// EnvBinDir returns the bin directory of the current isolated environment:
// $VIRTUAL_ENV/bin, then $CONDA_PREFIX/bin, then the directory holding the
// running executable (renderers shipped next to the binary).
func EnvBinDir() string {
	binName := "bin"
	if runtime.GOOS == "windows" {
		binName = "Scripts"
	}
	for _, key := range envPrefixVars {
		if prefix := os.Getenv(key); prefix != "" {
			return filepath.Join(prefix, binName)
		}
	}

	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
