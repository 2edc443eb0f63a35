//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; the renderer may already have exited.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// setProcessGroup starts the renderer in its own process group so that
// cancellation also reaches helpers it spawns (wkhtmltopdf forks, Chrome
// spawns renderer and GPU processes).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
}
