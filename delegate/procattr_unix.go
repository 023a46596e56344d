//go:build !windows

package delegate

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so a timeout
// also reaches anything the renderer spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
