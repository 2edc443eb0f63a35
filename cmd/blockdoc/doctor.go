package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-blockdoc/internal/process"
)

// versionTimeout bounds each "--version" call.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string         `json:"status"` // "ready", "warnings", "errors"
	Renderers []rendererInfo `json:"renderers"`
	Env       envInfo        `json:"environment"`
	System    systemInfo     `json:"system"`
	Warnings  []string       `json:"warnings,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
}

// rendererInfo describes how one renderer executable resolves.
type rendererInfo struct {
	Backend string `json:"backend"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Source  string `json:"source,omitempty"` // "env", "path" or "browser"
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	BinDir        string `json:"bin_dir,omitempty"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempDir      string `json:"temp_dir"`
	TempWritable bool   `json:"temp_writable"`
}

// doctorHost holds the lookups doctor depends on, replaceable in tests.
type doctorHost struct {
	binDir     string
	lookPath   func(string) (string, error)
	chromePath func() (string, bool)
	version    func(path string) (string, error)
	tempDir    string
}

func defaultHost() doctorHost {
	return doctorHost{
		binDir:     process.EnvBinDir(),
		lookPath:   exec.LookPath,
		chromePath: launcher.LookPath,
		version:    executableVersion,
		tempDir:    os.TempDir(),
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = at least one renderer usable, 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	return runDoctorWith(args, env, defaultHost())
}

func runDoctorWith(args []string, env *Environment, host doctorHost) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(host)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(host doctorHost) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:     runtime.GOOS,
			Arch:   runtime.GOARCH,
			BinDir: host.binDir,
		},
	}

	checkRenderers(result, host)
	checkEnvironment(result)
	checkSystem(result, host.tempDir)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkRenderers resolves each backend the way conversions do: the
// environment bin directory first, then PATH (or the browser lookup).
func checkRenderers(result *doctorResult, host doctorHost) {
	resolver := process.Resolver{BinDir: host.binDir}

	for _, name := range []string{"wkhtmltopdf", "wkhtmltoimage"} {
		info := rendererInfo{Backend: name}
		if local, ok := resolver.Local(name); ok {
			info.Found, info.Path, info.Source = true, local, "env"
		} else if path, err := host.lookPath(name); err == nil {
			info.Found, info.Path, info.Source = true, path, "path"
		}
		result.Renderers = append(result.Renderers, info)
	}

	chrome := rendererInfo{Backend: "chrome"}
	if local, ok := resolver.Local("chromium"); ok {
		chrome.Found, chrome.Path, chrome.Source = true, local, "env"
	} else if path, ok := host.chromePath(); ok {
		chrome.Found, chrome.Path, chrome.Source = true, path, "browser"
	}
	result.Renderers = append(result.Renderers, chrome)

	usable := 0
	for i := range result.Renderers {
		r := &result.Renderers[i]
		if !r.Found {
			result.Warnings = append(result.Warnings, r.Backend+" not found")
			continue
		}
		usable++
		v, err := host.version(r.Path)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not get %s version: %v", r.Backend, err))
			continue
		}
		r.Version = v
	}

	if usable == 0 {
		result.Errors = append(result.Errors,
			"no renderer found. Install wkhtmltopdf or Chrome, or put it in "+filepath.Join("$VIRTUAL_ENV", "bin"))
	}
}

// executableVersion runs "path --version" and returns its first line.
func executableVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path comes from renderer lookup
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Env.Container || result.Env.CI {
		for _, r := range result.Renderers {
			if r.Backend == "chrome" && r.Found {
				result.Warnings = append(result.Warnings,
					"container/CI detected: chrome may need renderer.extra no-sandbox")
			}
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("BLOCKDOC_CONTAINER") == "1" {
		return true, "BLOCKDOC_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory accepts staged HTML.
func checkSystem(result *doctorResult, tempDir string) {
	result.System.TempDir = tempDir
	f, err := os.CreateTemp(tempDir, "blockdoc-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("temp directory not writable: %s", tempDir))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "blockdoc doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Renderers")
	for _, rd := range r.Renderers {
		if !rd.Found {
			fmt.Fprintf(w, "  [WARN] %s: not found\n", rd.Backend)
			continue
		}
		fmt.Fprintf(w, "  [OK] %s: %s (%s)\n", rd.Backend, rd.Path, rd.Source)
		if rd.Version != "" {
			fmt.Fprintf(w, "       %s\n", rd.Version)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.BinDir != "" {
		fmt.Fprintf(w, "  [OK] Local bin: %s\n", r.Env.BinDir)
	}
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintf(w, "  [OK] Temp directory: %s writable\n", r.System.TempDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Temp directory: %s not writable\n", r.System.TempDir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
