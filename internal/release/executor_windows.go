//go:build windows

package release

import "os/exec"

// Windows has no process groups in the POSIX sense; cancellation kills the
// direct child only.
func isolateProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
