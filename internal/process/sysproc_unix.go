//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the worker in its own process group so termination
// signals reach any children it spawns. hideWindow is Windows-only.
func setSysProcAttr(cmd *exec.Cmd, _ bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminateProcess sends SIGTERM to the worker's process group, falling
// back to signalling the process directly.
func terminateProcess(p *os.Process) error {
	if pgid, err := syscall.Getpgid(p.Pid); err == nil {
		return syscall.Kill(-pgid, syscall.SIGTERM)
	}
	return p.Signal(syscall.SIGTERM)
}

// killProcess sends SIGKILL to the worker's process group, falling back
// to killing the process directly.
func killProcess(p *os.Process) error {
	if pgid, err := syscall.Getpgid(p.Pid); err == nil {
		return syscall.Kill(-pgid, syscall.SIGKILL)
	}
	return p.Kill()
}

// exitCodeFromState maps a signal death to 128+signal, matching shell
// convention.
func exitCodeFromState(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Signaled() {
			return 128 + int(status.Signal())
		}
		return status.ExitStatus()
	}
	return exitErr.ExitCode()
}
