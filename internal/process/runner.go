// Package process runs external renderer programs and locates their binaries.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for process execution.
var (
	ErrProcessStart  = errors.New("failed to start external application")
	ErrProcessFailed = errors.New("external application failed")
)

// DefaultMaxOutput caps each captured stream at 1 MiB.
const DefaultMaxOutput = 1 << 20

// truncationMarker is appended to a stream that exceeded its cap.
const truncationMarker = "\n[output truncated: %d bytes dropped]"

// Result holds the captured output of a successful run.
type Result struct {
	Stdout string
	Stderr string
}

// ExecError reports a command that could not start or exited non-zero.
// The captured streams are kept verbatim for diagnosis.
type ExecError struct {
	CommandLine string
	Stdout      string
	Stderr      string
	ExitCode    int // -1 when the process never ran to exit
	Err         error

	kind error
}

func (e *ExecError) Error() string {
	if errors.Is(e.kind, ErrProcessStart) {
		return fmt.Sprintf("%s: %v", e.CommandLine, e.Err)
	}
	return fmt.Sprintf("%s returned exit code %d:\n stdout: %s\n stderr: %s",
		e.CommandLine, e.ExitCode, e.Stdout, e.Stderr)
}

// Unwrap exposes both the error class (ErrProcessStart, ErrProcessFailed or
// a context error) and the underlying os/exec error.
func (e *ExecError) Unwrap() []error {
	return []error{e.kind, e.Err}
}

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner implements CommandRunner using os/exec.
// The zero value is usable: it logs nothing and caps output at DefaultMaxOutput.
type ExecRunner struct {
	Logger *zap.Logger

	// MaxOutput caps each of stdout and stderr in bytes.
	// Zero means DefaultMaxOutput; negative disables the cap.
	MaxOutput int
}

// Run starts name with args, waits for it to exit and returns both streams.
// A non-zero exit is reported as *ExecError. No timeout is applied here; a
// canceled ctx kills the process group.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	logger := r.logger()
	cmdLine := FormatCommandLine(name, args...)

	cmd := exec.CommandContext(ctx, name, args...)
	setProcessGroup(cmd)

	limit := r.MaxOutput
	if limit == 0 {
		limit = DefaultMaxOutput
	}
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info("running external application", zap.String("command", cmdLine))
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return Result{}, &ExecError{
			CommandLine: cmdLine,
			ExitCode:    -1,
			Err:         err,
			kind:        ErrProcessStart,
		}
	}

	waitErr := cmd.Wait()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if waitErr != nil {
		execErr := &ExecError{
			CommandLine: cmdLine,
			Stdout:      res.Stdout,
			Stderr:      res.Stderr,
			ExitCode:    -1,
			Err:         waitErr,
			kind:        ErrProcessFailed,
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			execErr.kind = ctxErr
		}
		return Result{}, execErr
	}

	logger.Info("external application returned",
		zap.String("command", cmdLine),
		zap.String("stdout", res.Stdout),
		zap.String("stderr", res.Stderr),
		zap.Duration("duration", time.Since(start)))

	return res, nil
}

func (r *ExecRunner) logger() *zap.Logger {
	if r == nil || r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// FormatCommandLine renders a command for logs and error messages.
// Arguments that are empty or contain whitespace or quotes are quoted.
func FormatCommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\n\"'") {
			s = strconv.Quote(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// cappedBuffer keeps at most limit bytes and counts the rest.
// It never reports a short write, so the child is never blocked or killed
// for producing too much output.
type cappedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.limit < 0 {
		return b.buf.Write(p)
	}
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.dropped += len(p)
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.dropped += len(p) - room
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	if b.dropped == 0 {
		return b.buf.String()
	}
	return b.buf.String() + fmt.Sprintf(truncationMarker, b.dropped)
}

// Compile-time interface check.
var _ CommandRunner = (*ExecRunner)(nil)
