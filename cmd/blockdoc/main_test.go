package main

// Notes:
// - run is tested through exit codes and output; conversions themselves are
//   covered in convert_test.go.

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, "", "Usage: blockdoc"},
		{"version", []string{"version"}, ExitSuccess, "blockdoc dev", ""},
		{"version flag", []string{"--version"}, ExitSuccess, "blockdoc dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help convert", []string{"help", "convert"}, ExitSuccess, "--page-size", ""},
		{"help doctor", []string{"help", "doctor"}, ExitSuccess, "--json", ""},
		{"help unknown", []string{"help", "nope"}, ExitUsage, "", "Unknown command: nope"},
		{"convert help flag", []string{"convert", "--help"}, ExitSuccess, "Usage: blockdoc convert", ""},
		{"unknown command", []string{"render"}, ExitUsage, "", "unknown command: render"},
		{"bad flag", []string{"convert", "--no-such-flag"}, ExitUsage, "", "no-such-flag"},
		{"no input", []string{"convert"}, ExitIO, "", "no input specified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(&fakeConverter{})
			code := run(context.Background(), tt.args, env)

			if code != tt.wantCode {
				t.Errorf("run(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", stderr, tt.wantStderr)
			}
		})
	}
}
