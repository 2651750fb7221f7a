package procattr

import (
	"os/exec"
	"syscall"
)

// Kill tears down the whole process group spawned for cmd. Signalling the
// negative PID reaches every descendant the CLI forked, not just the direct
// child. Safe on commands that never started.
func Kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
