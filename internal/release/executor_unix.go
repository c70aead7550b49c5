//go:build unix

package release

import (
	"os/exec"
	"syscall"
)

// isolateProcessGroup puts the child in its own process group so that
// cancellation can take down make's entire subtree, not just make itself.
func isolateProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
