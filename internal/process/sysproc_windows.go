//go:build windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// setSysProcAttr suppresses the console window a console-subsystem child
// would otherwise open.
func setSysProcAttr(cmd *exec.Cmd, hideWindow bool) {
	if !hideWindow {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x08000000, // CREATE_NO_WINDOW
	}
}

// terminateProcess has no graceful signal on Windows; Kill is the
// termination request.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func killProcess(p *os.Process) error {
	return p.Kill()
}

func exitCodeFromState(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}
